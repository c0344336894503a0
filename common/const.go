package common

// JSON-RPC methods served by the daemon.
const (
	MethodVersion         = "system.getVersion"
	MethodScheduleGet     = "schedule.get"
	MethodScheduleEntries = "schedule.entries"
	MethodScheduleCurrent = "schedule.current"
	MethodWidgetList      = "widget.list"
	MethodWidgetRender    = "widget.render"
)

const (
	DefaultRPCPort = 3850
	RPCPath        = "/jsonrpc"
	RPCWSPath      = "/jsonrpc/ws"
)
