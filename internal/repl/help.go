package repl

const (
	helpHeader = "\t======================: HELP :======================="
	helpFooter = "\t====================================================="
)

// helpLines renders the usage block in registry order.
func (d *Dispatcher) helpLines() []string {
	lines := make([]string, 0, len(commandOrder)+2)
	lines = append(lines, helpHeader)
	for _, name := range commandOrder {
		lines = append(lines, "\t >>> "+d.commands[name].usage)
	}
	return append(lines, helpFooter)
}
