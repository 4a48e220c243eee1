// Command arena-tui plays the arena locally in a terminal against AI players.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"bomb-arena/internal/config"
	"bomb-arena/internal/game"
)

const (
	selfID   = "local"
	frameDur = 50 * time.Millisecond
)

func main() {
	name := flag.String("name", "You", "player name")
	arenaFile := flag.String("arena", "", "optional YAML arena file")
	ai := flag.Int("ai", -1, "AI players to keep in the arena (default from config)")
	logFile := flag.String("log", "", "write diagnostics to this file instead of discarding them")
	flag.Parse()

	// The terminal belongs to tcell, so diagnostics go to a file or nowhere
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg := config.ArenaFromEnv()
	if *arenaFile != "" {
		if err := config.LoadArenaFile(*arenaFile, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *ai >= 0 {
		cfg.TargetAI = *ai
	}

	if err := run(cfg, *name); err != nil {
		fmt.Fprintf(os.Stderr, "arena-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.ArenaConfig, name string) error {
	logs := &logBuffer{}

	engine, err := game.NewEngine(game.EngineConfig{
		Arena:     cfg,
		Callbacks: game.Callbacks{OnLog: logs.Append},
	})
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	engine.Join(selfID, name)
	engine.Start()
	defer engine.Stop()

	v := &view{screen: screen, field: engine.Field(), selfID: selfID}

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				// Screen finalized
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frameDur)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !handleInput(engine, ev, name) {
				return nil
			}
		case <-ticker.C:
			v.draw(engine.Snapshot(), engine.Leaderboard(), logs.Lines())
		}
	}
}

// handleInput maps keys to arena tokens. It returns false to quit.
func handleInput(engine *game.Engine, ev tcell.Event, name string) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return true
	}

	if token, ok := keyToken(key); ok {
		engine.Command(selfID, token)
		return true
	}

	switch {
	case key.Key() == tcell.KeyEscape, key.Key() == tcell.KeyCtrlC:
		return false
	case key.Key() == tcell.KeyRune && key.Rune() == 'q':
		return false
	case key.Key() == tcell.KeyRune && key.Rune() == 'r':
		engine.Join(selfID, name)
	}
	return true
}

// keyToken translates a key press into a command token
func keyToken(key *tcell.EventKey) (string, bool) {
	switch key.Key() {
	case tcell.KeyUp:
		return "u", true
	case tcell.KeyDown:
		return "d", true
	case tcell.KeyLeft:
		return "l", true
	case tcell.KeyRight:
		return "r", true
	case tcell.KeyRune:
		switch key.Rune() {
		case 'w':
			return "u", true
		case 's':
			return "d", true
		case 'a':
			return "l", true
		case 'd':
			return "r", true
		case ' ':
			return "b", true
		case 'x':
			return "null", true
		}
	}
	return "", false
}
