package dao

import "time"

// TaskInstanceDAO TaskInstance表的数据访问对象（内部使用）
type TaskInstanceDAO struct {
	ID                int64      `db:"id"`
	ProcessInstanceID int64      `db:"process_instance_id"`
	Name              string     `db:"name"`
	State             string     `db:"state"`
	Host              string     `db:"host"`
	Flag              string     `db:"flag"`
	RetryTimes        int        `db:"retry_times"`
	StartTime         *time.Time `db:"start_time"`
	EndTime           *time.Time `db:"end_time"`
	TaskJSON          string     `db:"task_json"` // JSON格式存储，冻结的TaskNode
	Priority          string     `db:"task_instance_priority"`
	WorkerGroupID     string     `db:"worker_group_id"`
	AlertFlag         bool       `db:"alert_flag"`
	AppLinks          string     `db:"app_links"`
}

// TaskInstanceSchema 是TaskInstance表的基础DDL
const TaskInstanceSchema = `
CREATE TABLE IF NOT EXISTS task_instance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	process_instance_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	state TEXT NOT NULL,
	host TEXT NOT NULL DEFAULT '',
	flag TEXT NOT NULL DEFAULT 'YES',
	retry_times INTEGER NOT NULL DEFAULT 0,
	start_time DATETIME,
	end_time DATETIME,
	task_json TEXT NOT NULL DEFAULT '{}',
	task_instance_priority TEXT NOT NULL DEFAULT 'MEDIUM',
	worker_group_id TEXT NOT NULL DEFAULT '',
	alert_flag INTEGER NOT NULL DEFAULT 0,
	app_links TEXT NOT NULL DEFAULT ''
);
`
