// Package sqlstore 是 storage.ProcessStore 的通用实现，按注入的 Dialect 在
// sqlite/mysql/postgres 之间复用同一套 SQL 模板，避免每个驱动重复一份几乎相同的CRUD代码。
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/storage"
	"github.com/workflow-master/core/pkg/storage/dao"
)

// Store 是跨方言共用的 ProcessStore 实现（对外导出）
type Store struct {
	db      *sqlx.DB
	dialect storage.Dialect
}

// New 用已打开的 *sqlx.DB 和方言构造 Store，并初始化schema
func New(db *sqlx.DB, dialect storage.Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	for _, pragma := range s.dialect.ConfigureDB() {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("执行配置语句失败(%s): %w", pragma, err)
		}
	}
	for _, schema := range []string{dao.ProcessInstanceSchema, dao.TaskInstanceSchema, dao.CommandSchema} {
		ddl := s.dialect.CreateTableSQL(schema)
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("创建表失败: %w", err)
		}
	}
	return nil
}

// namedInsertReturningID 执行一条命名参数INSERT并取回自增ID。
// lib/pq不支持database/sql的LastInsertId，postgres方言下改用"INSERT ... RETURNING id"读回。
func (s *Store) namedInsertReturningID(ctx context.Context, query string, arg interface{}) (int64, error) {
	if s.dialect.Name() == "postgres" {
		rows, err := s.db.NamedQueryContext(ctx, query+" RETURNING id", arg)
		if err != nil {
			return 0, err
		}
		defer rows.Close()
		if !rows.Next() {
			return 0, fmt.Errorf("RETURNING id未返回任何行")
		}
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		return id, rows.Err()
	}
	res, err := s.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Close 释放底层连接
func (s *Store) Close() error {
	return s.db.Close()
}

func toProcessDAO(pi *model.ProcessInstance) (*dao.ProcessInstanceDAO, error) {
	if err := pi.MarshalParams(); err != nil {
		return nil, err
	}
	return &dao.ProcessInstanceDAO{
		ID:               pi.ID,
		DefinitionID:     pi.DefinitionID,
		DagJSON:          pi.DagJSON,
		State:            string(pi.State),
		CommandType:      pi.CommandType,
		CommandParam:     nonEmptyJSON(pi.CommandParamRaw),
		Host:             pi.Host,
		StartTime:        pi.StartTime,
		EndTime:          pi.EndTime,
		ScheduleTime:     pi.ScheduleTime,
		TimeoutMinutes:   pi.TimeoutMinutes,
		FailureStrategy:  string(pi.FailureStrategy),
		IsComplementData: pi.IsComplementData,
		IsSubProcess:     pi.IsSubProcess,
		GlobalParams:     nonEmptyJSON(pi.GlobalParamsRaw),
	}, nil
}

func fromProcessDAO(d *dao.ProcessInstanceDAO) (*model.ProcessInstance, error) {
	pi := &model.ProcessInstance{
		ID:               d.ID,
		DefinitionID:     d.DefinitionID,
		DagJSON:          d.DagJSON,
		State:            types.ExecutionStatus(d.State),
		CommandType:      d.CommandType,
		CommandParamRaw:  d.CommandParam,
		Host:             d.Host,
		StartTime:        d.StartTime,
		EndTime:          d.EndTime,
		ScheduleTime:     d.ScheduleTime,
		TimeoutMinutes:   d.TimeoutMinutes,
		FailureStrategy:  types.FailureStrategy(d.FailureStrategy),
		IsComplementData: d.IsComplementData,
		IsSubProcess:     d.IsSubProcess,
		GlobalParamsRaw:  d.GlobalParams,
	}
	if err := pi.UnmarshalParams(); err != nil {
		return nil, err
	}
	return pi, nil
}

// FindProcessInstanceByID 按ID查询ProcessInstance
func (s *Store) FindProcessInstanceByID(ctx context.Context, id int64) (*model.ProcessInstance, error) {
	var d dao.ProcessInstanceDAO
	err := s.db.GetContext(ctx, &d, s.db.Rebind("SELECT * FROM process_instance WHERE id = ?"), id)
	if err != nil {
		return nil, fmt.Errorf("查询ProcessInstance失败: %w", err)
	}
	return fromProcessDAO(&d)
}

// SaveProcessInstance 插入一条新ProcessInstance
func (s *Store) SaveProcessInstance(ctx context.Context, pi *model.ProcessInstance) (int64, error) {
	d, err := toProcessDAO(pi)
	if err != nil {
		return 0, err
	}
	query := `INSERT INTO process_instance
		(definition_id, dag_json, state, command_type, command_param, host, start_time, end_time,
		 schedule_time, timeout_minutes, failure_strategy, is_complement_data, is_sub_process, global_params)
		VALUES (:definition_id, :dag_json, :state, :command_type, :command_param, :host, :start_time, :end_time,
		 :schedule_time, :timeout_minutes, :failure_strategy, :is_complement_data, :is_sub_process, :global_params)`
	id, err := s.namedInsertReturningID(ctx, query, d)
	if err != nil {
		return 0, fmt.Errorf("保存ProcessInstance失败: %w", err)
	}
	pi.ID = id
	return id, nil
}

// UpdateProcessInstance 更新已存在的ProcessInstance
func (s *Store) UpdateProcessInstance(ctx context.Context, pi *model.ProcessInstance) error {
	d, err := toProcessDAO(pi)
	if err != nil {
		return err
	}
	query := `UPDATE process_instance SET
		state = :state, command_type = :command_type, command_param = :command_param, host = :host,
		start_time = :start_time, end_time = :end_time, schedule_time = :schedule_time,
		is_complement_data = :is_complement_data, global_params = :global_params
		WHERE id = :id`
	if _, err := s.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("更新ProcessInstance失败: %w", err)
	}
	return nil
}

func toTaskDAO(ti *model.TaskInstance) (*dao.TaskInstanceDAO, error) {
	if err := ti.MarshalTaskJSON(); err != nil {
		return nil, err
	}
	return &dao.TaskInstanceDAO{
		ID:                ti.ID,
		ProcessInstanceID: ti.ProcessInstanceID,
		Name:              ti.Name,
		State:             string(ti.State),
		Host:              ti.Host,
		Flag:              string(ti.Flag),
		RetryTimes:        ti.RetryTimes,
		StartTime:         ti.StartTime,
		EndTime:           ti.EndTime,
		TaskJSON:          nonEmptyJSON(ti.TaskJSONRaw),
		Priority:          string(ti.Priority),
		WorkerGroupID:     ti.WorkerGroupID,
		AlertFlag:         ti.AlertFlag,
		AppLinks:          ti.AppLinksRaw,
	}, nil
}

func fromTaskDAO(d *dao.TaskInstanceDAO) (*model.TaskInstance, error) {
	ti := &model.TaskInstance{
		ID:                d.ID,
		ProcessInstanceID: d.ProcessInstanceID,
		Name:              d.Name,
		State:             types.ExecutionStatus(d.State),
		Host:              d.Host,
		Flag:              types.TaskFlag(d.Flag),
		RetryTimes:        d.RetryTimes,
		StartTime:         d.StartTime,
		EndTime:           d.EndTime,
		TaskJSONRaw:       d.TaskJSON,
		Priority:          types.Priority(d.Priority),
		WorkerGroupID:     d.WorkerGroupID,
		AlertFlag:         d.AlertFlag,
		AppLinksRaw:       d.AppLinks,
	}
	if err := ti.UnmarshalTaskJSON(); err != nil {
		return nil, err
	}
	return ti, nil
}

// FindValidTaskListByProcessID 查询flag=YES的TaskInstance
func (s *Store) FindValidTaskListByProcessID(ctx context.Context, processInstanceID int64) ([]*model.TaskInstance, error) {
	var rows []dao.TaskInstanceDAO
	query := s.db.Rebind("SELECT * FROM task_instance WHERE process_instance_id = ? AND flag = ? ORDER BY id ASC")
	if err := s.db.SelectContext(ctx, &rows, query, processInstanceID, string(types.FlagYes)); err != nil {
		return nil, fmt.Errorf("查询TaskInstance列表失败: %w", err)
	}
	out := make([]*model.TaskInstance, 0, len(rows))
	for i := range rows {
		ti, err := fromTaskDAO(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, ti)
	}
	return out, nil
}

// FindTaskInstanceByID 按ID查询TaskInstance
func (s *Store) FindTaskInstanceByID(ctx context.Context, id int64) (*model.TaskInstance, error) {
	var d dao.TaskInstanceDAO
	if err := s.db.GetContext(ctx, &d, s.db.Rebind("SELECT * FROM task_instance WHERE id = ?"), id); err != nil {
		return nil, fmt.Errorf("查询TaskInstance失败: %w", err)
	}
	return fromTaskDAO(&d)
}

// SaveTaskInstance 插入一条新TaskInstance
func (s *Store) SaveTaskInstance(ctx context.Context, ti *model.TaskInstance) (int64, error) {
	d, err := toTaskDAO(ti)
	if err != nil {
		return 0, err
	}
	query := `INSERT INTO task_instance
		(process_instance_id, name, state, host, flag, retry_times, start_time, end_time,
		 task_json, task_instance_priority, worker_group_id, alert_flag, app_links)
		VALUES (:process_instance_id, :name, :state, :host, :flag, :retry_times, :start_time, :end_time,
		 :task_json, :task_instance_priority, :worker_group_id, :alert_flag, :app_links)`
	id, err := s.namedInsertReturningID(ctx, query, d)
	if err != nil {
		return 0, fmt.Errorf("保存TaskInstance失败: %w", err)
	}
	ti.ID = id
	return id, nil
}

// UpdateTaskInstance 更新已存在的TaskInstance
func (s *Store) UpdateTaskInstance(ctx context.Context, ti *model.TaskInstance) error {
	d, err := toTaskDAO(ti)
	if err != nil {
		return err
	}
	query := `UPDATE task_instance SET
		state = :state, host = :host, retry_times = :retry_times, start_time = :start_time,
		end_time = :end_time, alert_flag = :alert_flag, app_links = :app_links
		WHERE id = :id`
	if _, err := s.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("更新TaskInstance失败: %w", err)
	}
	return nil
}

// MarkTaskInstanceFlagNo 把旧TaskInstance标记为flag=NO
func (s *Store) MarkTaskInstanceFlagNo(ctx context.Context, id int64) error {
	query := s.db.Rebind("UPDATE task_instance SET flag = ? WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, string(types.FlagNo), id); err != nil {
		return fmt.Errorf("标记TaskInstance flag=NO失败: %w", err)
	}
	return nil
}

// QueryNeedFailoverProcessInstances 查询host匹配、状态非终态的ProcessInstance
func (s *Store) QueryNeedFailoverProcessInstances(ctx context.Context, host string) ([]*model.ProcessInstance, error) {
	var rows []dao.ProcessInstanceDAO
	var query string
	var args []interface{}
	if host == "" {
		query = s.db.Rebind("SELECT * FROM process_instance WHERE host != '' ORDER BY id ASC")
	} else {
		query = s.db.Rebind("SELECT * FROM process_instance WHERE host = ? ORDER BY id ASC")
		args = append(args, host)
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("查询待failover的ProcessInstance失败: %w", err)
	}
	out := make([]*model.ProcessInstance, 0, len(rows))
	for i := range rows {
		if types.ExecutionStatus(rows[i].State).IsFinished() {
			continue
		}
		pi, err := fromProcessDAO(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, pi)
	}
	return out, nil
}

// QueryNeedFailoverTaskInstances 查询host匹配、尚未终结的TaskInstance
func (s *Store) QueryNeedFailoverTaskInstances(ctx context.Context, host string) ([]*model.TaskInstance, error) {
	var rows []dao.TaskInstanceDAO
	var query string
	var args []interface{}
	if host == "" {
		query = s.db.Rebind("SELECT * FROM task_instance WHERE flag = ? ORDER BY id ASC")
		args = append(args, string(types.FlagYes))
	} else {
		query = s.db.Rebind("SELECT * FROM task_instance WHERE flag = ? AND host = ? ORDER BY id ASC")
		args = append(args, string(types.FlagYes), host)
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("查询待failover的TaskInstance失败: %w", err)
	}
	out := make([]*model.TaskInstance, 0, len(rows))
	for i := range rows {
		if types.ExecutionStatus(rows[i].State).IsFinished() {
			continue
		}
		ti, err := fromTaskDAO(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, ti)
	}
	return out, nil
}

// ProcessNeedFailoverProcessInstances 清空host，把状态重置为可被重新领取，并落一条恢复Command
func (s *Store) ProcessNeedFailoverProcessInstances(ctx context.Context, pi *model.ProcessInstance) error {
	pi.Host = ""
	pi.State = types.RunningExecution
	if err := s.UpdateProcessInstance(ctx, pi); err != nil {
		return err
	}
	cmd := &model.Command{
		ProcessDefinitionID: pi.DefinitionID,
		CommandType:         model.CommandTypeRecoverTolerance,
		TaskDependTypeRaw:   string(types.DependTypeAll),
		Host:                "",
		CreateTime:          time.Now(),
	}
	_, err := s.SaveCommand(ctx, cmd)
	return err
}

// SaveCommand 落盘一条Command
func (s *Store) SaveCommand(ctx context.Context, cmd *model.Command) (int64, error) {
	startIDs, err := json.Marshal(cmd.RecoveryStartNodeIDs)
	if err != nil {
		return 0, err
	}
	startNames, err := json.Marshal(cmd.StartNodeNames)
	if err != nil {
		return 0, err
	}
	d := &dao.CommandDAO{
		ProcessDefinitionID:  cmd.ProcessDefinitionID,
		DagJSON:              nonEmptyJSON(cmd.DagJSON),
		CommandType:          cmd.CommandType,
		RecoveryStartNodeIDs: nonEmptyJSON(string(startIDs)),
		StartNodeNames:       nonEmptyJSON(string(startNames)),
		ComplementStartDate:  cmd.ComplementDataStartDate,
		ComplementEndDate:    cmd.ComplementDataEndDate,
		TaskDependType:       cmd.TaskDependTypeRaw,
		CommandParam:         nonEmptyJSON(cmd.CommandParamRaw),
		Host:                 cmd.Host,
		CreateTime:           cmd.CreateTime,
	}
	query := `INSERT INTO command
		(process_definition_id, dag_json, command_type, recovery_start_node_ids, start_node_names,
		 complement_start_date, complement_end_date, task_depend_type, command_param, host, create_time)
		VALUES (:process_definition_id, :dag_json, :command_type, :recovery_start_node_ids, :start_node_names,
		 :complement_start_date, :complement_end_date, :task_depend_type, :command_param, :host, :create_time)`
	id, err := s.namedInsertReturningID(ctx, query, d)
	if err != nil {
		return 0, fmt.Errorf("保存Command失败: %w", err)
	}
	cmd.ID = id
	return id, nil
}

// CreateRecoveryWaitingThreadCommand 为WAITING_THREAD状态的ProcessInstance创建恢复Command
func (s *Store) CreateRecoveryWaitingThreadCommand(ctx context.Context, existing *model.Command, pi *model.ProcessInstance) error {
	cmd := &model.Command{
		ProcessDefinitionID: pi.DefinitionID,
		CommandType:         model.CommandTypeRecoverWaitingThread,
		TaskDependTypeRaw:   string(types.DependTypeAll),
		CreateTime:          time.Now(),
	}
	if existing != nil {
		cmd.RecoveryStartNodeIDs = existing.RecoveryStartNodeIDs
		cmd.StartNodeNames = existing.StartNodeNames
	}
	_, err := s.SaveCommand(ctx, cmd)
	return err
}

// PollCommands 按create_time升序取出最多limit条Command，供Scheduler批量领取
func (s *Store) PollCommands(ctx context.Context, limit int) ([]*model.Command, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []dao.CommandDAO
	query := fmt.Sprintf("SELECT * FROM command ORDER BY create_time ASC LIMIT %d", limit)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("查询待领取Command失败: %w", err)
	}
	cmds := make([]*model.Command, 0, len(rows))
	for i := range rows {
		cmd, err := fromCommandDAO(&rows[i])
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// DeleteCommand 消费完成后删除一条Command，避免被其他Master重复领取
func (s *Store) DeleteCommand(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM command WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("删除Command(%d)失败: %w", id, err)
	}
	return nil
}

func fromCommandDAO(d *dao.CommandDAO) (*model.Command, error) {
	cmd := &model.Command{
		ID:                      d.ID,
		ProcessDefinitionID:     d.ProcessDefinitionID,
		DagJSON:                 d.DagJSON,
		CommandType:             d.CommandType,
		TaskDependTypeRaw:       d.TaskDependType,
		CommandParamRaw:         d.CommandParam,
		Host:                    d.Host,
		CreateTime:              d.CreateTime,
		ComplementDataStartDate: d.ComplementStartDate,
		ComplementDataEndDate:   d.ComplementEndDate,
	}
	if d.RecoveryStartNodeIDs != "" {
		if err := json.Unmarshal([]byte(d.RecoveryStartNodeIDs), &cmd.RecoveryStartNodeIDs); err != nil {
			return nil, fmt.Errorf("解析recoveryStartNodeIds失败: %w", err)
		}
	}
	if d.StartNodeNames != "" {
		if err := json.Unmarshal([]byte(d.StartNodeNames), &cmd.StartNodeNames); err != nil {
			return nil, fmt.Errorf("解析startNodeNames失败: %w", err)
		}
	}
	return cmd, nil
}

func nonEmptyJSON(raw string) string {
	if raw == "" {
		return "{}"
	}
	return raw
}

var _ storage.ProcessStore = (*Store)(nil)
