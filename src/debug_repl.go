package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// readlineWriter redirects log output through readline so command output and
// background log lines don't interleave mid-line, adapted from the teacher's
// debug_worker.go.
type readlineWriter struct {
	rl *readline.Instance
}

func (w *readlineWriter) Write(p []byte) (int, error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err := os.Stderr.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

var rlWriter = &readlineWriter{}

func getHistoryFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheDir, "gensetctl")
	_ = os.MkdirAll(dir, 0750)
	return filepath.Join(dir, "debug_history")
}

func readlineLoop(ctx context.Context, cancel context.CancelFunc, rl *readline.Instance, commandChan chan<- string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel()
			return
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line != "" {
			commandChan <- line
		}
	}
}

func stateName(s GeneratorState) string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Running:
		return "RUNNING"
	case Warmup:
		return "WARMUP"
	case Cooldown:
		return "COOLDOWN"
	case ErrorState:
		return "ERROR"
	default:
		return "?"
	}
}

func errorName(e GeneratorError) string {
	switch e {
	case ErrNone:
		return "none"
	case ErrRemoteInFault:
		return "remoteinfault"
	case ErrRemoteDisabled:
		return "remotedisabled"
	case ErrRemoteIncompatible:
		return "remoteincompatible"
	default:
		return "?"
	}
}

func printStatus(gens map[string]*GeneratorWorker, name string) {
	g, ok := gens[name]
	if !ok {
		fmt.Printf("unknown generator %q\n", name)
		return
	}
	state, cond, err, daily, life := g.Status()
	fmt.Printf("%-14s state=%-8s condition=%-16s error=%-18s today=%5ds lifetime=%ds\n",
		name, stateName(state), cond, errorName(err), daily, life)
}

func handleDebugCommand(cmd string, gens map[string]*GeneratorWorker) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "status":
		if len(parts) >= 2 {
			printStatus(gens, parts[1])
			return
		}
		for name := range gens {
			printStatus(gens, name)
		}

	case "help":
		fmt.Println("Commands:")
		fmt.Println("  status                 - Show both generators' current state")
		fmt.Println("  status <name>          - Show one generator's current state")
		fmt.Println("  help                   - Show this help")

	default:
		log.Printf("Unknown command: %s (try 'help')", parts[0])
	}
}

// debugReplWorker provides interactive introspection of both generator
// instances' published state, gated behind the --debug flag.
func debugReplWorker(ctx context.Context, generator0, fischerPanda0 *GeneratorWorker) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "gensetctl> ",
		HistoryFile: getHistoryFilePath(),
	})
	if err != nil {
		log.Printf("debug repl: readline init failed: %v", err)
		return
	}
	defer func() {
		_ = rl.Close()
		rlWriter.rl = nil
	}()

	rlWriter.rl = rl
	log.SetOutput(rlWriter)

	log.Println("debug repl started (type 'help' for commands)")

	gens := map[string]*GeneratorWorker{
		"Generator0":    generator0,
		"FischerPanda0": fischerPanda0,
	}

	commandChan := make(chan string, 10)
	cancelFn := func() {}
	go readlineLoop(ctx, cancelFn, rl, commandChan)

	for {
		select {
		case cmd := <-commandChan:
			handleDebugCommand(cmd, gens)
		case <-ctx.Done():
			log.Println("debug repl stopped")
			return
		}
	}
}
