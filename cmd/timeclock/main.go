// Command timeclock は打刻サービスを起動する。
//
//	timeclock [serve]             HTTPサーバー
//	timeclock worker              認証リクエストの期限切れジョブ
//	timeclock migrate [up|down N|version]
//	timeclock healthcheck         /health を確認して終了コードで返す
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/timeclock/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "timeclock: %v\n", err)
		os.Exit(1)
	}
}
