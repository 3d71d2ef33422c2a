package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "masterctl",
	Short: "masterctl - 工作流Master控制面命令行工具",
	Long: `masterctl 是一个用于操作Master控制面的命令行工具。

支持的功能：
  - 查询集群状态
  - 暂停/恢复/停止一个ProcessInstance

使用示例：
  # 查询集群状态
  masterctl status

  # 暂停一个ProcessInstance
  masterctl process pause 1001`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8088", "Master控制面地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(versionCmd)
}
