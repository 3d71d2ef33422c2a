package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/workflow-master/core/pkg/cli/client"
	"github.com/workflow-master/core/pkg/cli/output"
)

// statusCmd 查询集群状态
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查询本机Master的集群状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		status, err := c.Status()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		if outputJSON {
			return output.PrintJSON(status)
		}

		table := output.NewTable([]string{"HOST", "STARTED_AT", "UPTIME", "ACTIVE_PROCESSES"})
		table.AddRow([]string{
			status.Host,
			status.StartedAt.Format("2006-01-02 15:04:05"),
			(time.Duration(status.UptimeSeconds) * time.Second).String(),
			strconv.Itoa(status.ActiveProcesses),
		})
		table.Render()
		return nil
	},
}

// processCmd process子命令
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "ProcessInstance控制命令",
	Long:  `对单个ProcessInstance下发pause/resume/stop控制信号。`,
}

var processPauseCmd = &cobra.Command{
	Use:   "pause <processInstanceId>",
	Short: "暂停ProcessInstance",
	Args:  cobra.ExactArgs(1),
	RunE: runProcessAction(func(c *client.Client, id int64) (string, error) {
		_, err := c.Pause(id)
		return "pause", err
	}),
}

var processResumeCmd = &cobra.Command{
	Use:   "resume <processInstanceId>",
	Short: "恢复ProcessInstance",
	Args:  cobra.ExactArgs(1),
	RunE: runProcessAction(func(c *client.Client, id int64) (string, error) {
		_, err := c.Resume(id)
		return "resume", err
	}),
}

var processStopCmd = &cobra.Command{
	Use:   "stop <processInstanceId>",
	Short: "停止ProcessInstance",
	Args:  cobra.ExactArgs(1),
	RunE: runProcessAction(func(c *client.Client, id int64) (string, error) {
		_, err := c.Stop(id)
		return "stop", err
	}),
}

var processProgressCmd = &cobra.Command{
	Use:   "progress <processInstanceId>",
	Short: "查看ProcessInstance的DAG执行进度",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("无效的processInstanceId: %w", err)
		}
		c := client.New(serverURL)
		snap, err := c.Progress(id)
		if err != nil {
			output.Error("查询进度失败: %v", err)
			return err
		}
		if outputJSON {
			return output.PrintJSON(snap)
		}

		table := output.NewTable([]string{"TOTAL", "COMPLETED", "RUNNING", "FAILED", "PENDING", "RUNNING_TASKS"})
		table.AddRow([]string{
			strconv.Itoa(snap.Total),
			strconv.Itoa(snap.Completed),
			strconv.Itoa(snap.Running),
			strconv.Itoa(snap.Failed),
			strconv.Itoa(snap.Pending),
			strings.Join(snap.RunningTaskIDs, ","),
		})
		table.Render()
		return nil
	},
}

func runProcessAction(do func(c *client.Client, id int64) (string, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("无效的processInstanceId: %w", err)
		}
		c := client.New(serverURL)
		action, err := do(c, id)
		if err != nil {
			output.Error("%s失败: %v", action, err)
			return err
		}
		output.Success("ProcessInstance(%d)已发出%s信号", id, action)
		return nil
	}
}

func init() {
	processCmd.AddCommand(processPauseCmd)
	processCmd.AddCommand(processResumeCmd)
	processCmd.AddCommand(processStopCmd)
	processCmd.AddCommand(processProgressCmd)
}
