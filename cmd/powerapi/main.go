package main

import (
	"powerapi-backend/cmd/powerapi/commands"
	"powerapi-backend/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
