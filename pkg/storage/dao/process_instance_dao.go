package dao

import "time"

// ProcessInstanceDAO ProcessInstance表的数据访问对象（内部使用）
type ProcessInstanceDAO struct {
	ID               int64      `db:"id"`
	DefinitionID     int64      `db:"definition_id"`
	DagJSON          string     `db:"dag_json"`
	State            string     `db:"state"`
	CommandType      string     `db:"command_type"`
	CommandParam     string     `db:"command_param"` // JSON格式存储
	Host             string     `db:"host"`
	StartTime        *time.Time `db:"start_time"`
	EndTime          *time.Time `db:"end_time"`
	ScheduleTime     time.Time  `db:"schedule_time"`
	TimeoutMinutes   int        `db:"timeout_minutes"`
	FailureStrategy  string     `db:"failure_strategy"`
	IsComplementData bool       `db:"is_complement_data"`
	IsSubProcess     bool       `db:"is_sub_process"`
	GlobalParams     string     `db:"global_params"` // JSON格式存储
}

// ProcessInstanceSchema 是ProcessInstance表的基础DDL（以SQLite语法书写，经Dialect转换后用于其他数据库）
const ProcessInstanceSchema = `
CREATE TABLE IF NOT EXISTS process_instance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	definition_id INTEGER NOT NULL,
	dag_json TEXT NOT NULL,
	state TEXT NOT NULL,
	command_type TEXT NOT NULL DEFAULT '',
	command_param TEXT NOT NULL DEFAULT '{}',
	host TEXT NOT NULL DEFAULT '',
	start_time DATETIME,
	end_time DATETIME,
	schedule_time DATETIME NOT NULL,
	timeout_minutes INTEGER NOT NULL DEFAULT 0,
	failure_strategy TEXT NOT NULL DEFAULT 'END',
	is_complement_data INTEGER NOT NULL DEFAULT 0,
	is_sub_process INTEGER NOT NULL DEFAULT 0,
	global_params TEXT NOT NULL DEFAULT '{}'
);
`
