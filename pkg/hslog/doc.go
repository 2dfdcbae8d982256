// Package hslog turns the card game engine's debug log into match events.
//
// The engine writes zone, power and choice logging to a text file while a
// match runs. This package reduces that stream into a handful of events:
//   - GameStart when both players and teams are known
//   - MulliganStart when the opening hands are offered
//   - TurnStart for every turn, starting with turn 1
//   - ZoneChange whenever a card moves to a friendly or opposing zone
//   - GameOver when both players have a final result
//
// # Basic Usage
//
// To watch the engine log in real time:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	events, errs, err := hslog.WatchWithOptions(ctx,
//	    hslog.WithWaitForLogs(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            return
//	        }
//	        switch ev := ev.(type) {
//	        case event.TurnStart:
//	            fmt.Printf("turn %d: %s\n", ev.Number, ev.Player.Name)
//	        case event.GameOver:
//	            fmt.Println("game over")
//	        }
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// To reduce text directly, for example from a socket or a test:
//
//	s, _ := hslog.NewSession()
//	events, err := s.FeedString(chunk)
//
// A Session is a state machine. Lines must arrive in log order, and a
// GameOver resets it for the next match. Events that need a player the
// session cannot identify are dropped and reported as *IdentityError.
//
// # Custom Parsers
//
// Implement the [Parser] interface for custom log parsing and combine it
// with a Session in a [ParserChain]:
//
//	chain := &hslog.ParserChain{
//	    Mode:    hslog.ChainContinueOnError,
//	    Parsers: []hslog.Parser{session, customParser},
//	}
//
// # YAML Pattern Files
//
// For pattern-based parsing without code, use the [pattern] subpackage.
//
// # Platform Support
//
// Log file locations are auto-detected on Windows and macOS. Elsewhere,
// pass WithLogFile or set HSLOG_LOG_FILE.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Blizzard Entertainment.
package hslog
