// Command newleaf はNew LeafのAPIサーバー、ワーカー、運用サブコマンドを起動する。
package main

import (
	"fmt"
	"os"

	"github.com/newleaf/newleaf/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "newleaf: %v\n", err)
		os.Exit(1)
	}
}
