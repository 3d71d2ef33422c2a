package dao

import "time"

// CommandDAO Command表的数据访问对象（内部使用）
type CommandDAO struct {
	ID                  int64     `db:"id"`
	ProcessDefinitionID int64     `db:"process_definition_id"`
	DagJSON             string    `db:"dag_json"`
	CommandType         string    `db:"command_type"`
	RecoveryStartNodeIDs string   `db:"recovery_start_node_ids"` // JSON数组
	StartNodeNames      string    `db:"start_node_names"`        // JSON数组
	ComplementStartDate *time.Time `db:"complement_start_date"`
	ComplementEndDate   *time.Time `db:"complement_end_date"`
	TaskDependType      string    `db:"task_depend_type"`
	CommandParam        string    `db:"command_param"` // JSON格式存储
	Host                string    `db:"host"`
	CreateTime          time.Time `db:"create_time"`
}

// CommandSchema 是Command表的基础DDL
const CommandSchema = `
CREATE TABLE IF NOT EXISTS command (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	process_definition_id INTEGER NOT NULL,
	dag_json TEXT NOT NULL DEFAULT '{}',
	command_type TEXT NOT NULL,
	recovery_start_node_ids TEXT NOT NULL DEFAULT '[]',
	start_node_names TEXT NOT NULL DEFAULT '[]',
	complement_start_date DATETIME,
	complement_end_date DATETIME,
	task_depend_type TEXT NOT NULL DEFAULT 'ALL',
	command_param TEXT NOT NULL DEFAULT '{}',
	host TEXT NOT NULL DEFAULT '',
	create_time DATETIME NOT NULL
);
`
