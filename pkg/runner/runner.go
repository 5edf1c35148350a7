package runner

import "context"

// CommandRunner executes a helper process, feeding it stdin and returning
// its stdout.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string, stdin []byte) ([]byte, error)
}
