package hslog_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hslog/hslog-go/pkg/hslog"
	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// ExampleNewSession reduces a chunk of log text into events.
func ExampleNewSession() {
	s, err := hslog.NewSession()
	if err != nil {
		log.Fatal(err)
	}

	events, err := s.FeedString(strings.Join([]string{
		"Entity=Alice tag=TEAM_ID value=2",
		"Entity=Bob tag=TEAM_ID value=3",
		"GameEntity tag=TURN value=1",
		"id=2 ChoiceType=MULLIGAN Cancelable=False CountMin=0 CountMax=1",
		"name=Fireball id=42 ... to FRIENDLY HAND",
	}, "\n"))
	if err != nil {
		log.Fatal(err)
	}

	for _, ev := range events {
		switch ev := ev.(type) {
		case event.GameStart:
			for _, p := range ev.Players {
				fmt.Printf("%s plays %s\n", p.Name, p.Team)
			}
		case event.ZoneChange:
			fmt.Printf("%s -> %s %s\n", ev.CardName, ev.Team, ev.Zone)
		}
	}
	// Output:
	// Alice plays FRIENDLY
	// Bob plays OPPOSING
	// Fireball -> FRIENDLY HAND
}

// ExampleWatchWithOptions demonstrates watching the live engine log.
func ExampleWatchWithOptions() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, errs, err := hslog.WatchWithOptions(ctx,
		hslog.WithWaitForLogs(true),
		hslog.WithIncludeTypes(hslog.EventTurnStart, hslog.EventGameOver),
	)
	if err != nil {
		log.Fatal(err)
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case event.TurnStart:
				fmt.Printf("turn %d: %s\n", ev.Number, ev.Player.Name)
			case event.GameOver:
				for _, p := range ev.Players {
					fmt.Printf("%s %s\n", p.Name, p.Status)
				}
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("error: %v", err)
		}
	}
}

// ExampleParseFile demonstrates reducing a saved log.
func ExampleParseFile() {
	ctx := context.Background()

	for ev, err := range hslog.ParseFile(ctx, "output_log.txt") {
		if err != nil {
			log.Printf("error: %v", err)
			continue
		}
		fmt.Println(ev.Type())
	}
}
