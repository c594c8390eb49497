// Package logx configures taskline's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller) and on stderr,
//     so it never mixes with the interactive prompt on stdout
//   - File output JSON-structured
//   - Level and sinks swappable at runtime (config hot reload)
package logx
