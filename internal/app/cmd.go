package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	CommandServe   Command = "serve"   // APIサーバー
	CommandWorker  Command = "worker"  // 期限切れセッションの定期削除
	CommandMigrate Command = "migrate" // スキーマの適用

	// CommandHealthcheck はdistroless環境でのDockerヘルスチェック用。
	// 設定を読み込まずにローカルの/healthを叩く。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数が空または未知のコマンドの場合はCommandServeを返す。2番目以降の引数は無視する。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
