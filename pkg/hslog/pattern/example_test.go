package pattern_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hslog/hslog-go/pkg/hslog/event"
	"github.com/hslog/hslog-go/pkg/hslog/pattern"
)

func ExampleNewRegexParser() {
	pf, err := pattern.LoadBytes([]byte(`version: 1
patterns:
  - id: armor
    event_type: armor_gained
    regex: 'Entity=(?P<player>.+) tag=ARMOR value=(?P<armor>\d+)'
`))
	if err != nil {
		log.Fatal(err)
	}

	p, err := pattern.NewRegexParser(pf)
	if err != nil {
		log.Fatal(err)
	}

	result, _ := p.ParseLine(context.Background(), "TAG_CHANGE Entity=Bob tag=ARMOR value=5")
	for _, ev := range result.Events {
		c := ev.(event.Custom)
		fmt.Println(c.Name, c.Data["player"], c.Data["armor"])
	}
	// Output: armor_gained Bob 5
}
