package repl

import (
	"ocontest/internal/cli/command"

	"github.com/chzyer/readline"
)

// Completer completes system commands, "service action" pairs and field names.
func Completer(commands map[string]command.Command) *readline.PrefixCompleter {
	services := map[string][]readline.PrefixCompleterInterface{}
	var order []string
	for _, key := range command.Keys(commands) {
		cmd := commands[key]
		if _, ok := services[cmd.Service]; !ok {
			order = append(order, cmd.Service)
		}
		fields := make([]readline.PrefixCompleterInterface, 0, len(cmd.Fields))
		for _, f := range cmd.Fields {
			fields = append(fields, readline.PcItem(f.Name+"="))
		}
		services[cmd.Service] = append(services[cmd.Service], readline.PcItem(cmd.Action, fields...))
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("set",
			readline.PcItem("base"),
			readline.PcItem("timeout"),
			readline.PcItem("token"),
			readline.PcItem("scheme", readline.PcItem("Bearer"), readline.PcItem("raw")),
		),
		readline.PcItem("show",
			readline.PcItem("token"),
			readline.PcItem("config"),
			readline.PcItem("cache", readline.PcItem("id=")),
		),
	}
	for _, service := range order {
		items = append(items, readline.PcItem(service, services[service]...))
	}
	return readline.NewPrefixCompleter(items...)
}
