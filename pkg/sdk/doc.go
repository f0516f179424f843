// Package patternbot provides a Go client for looking up SkyHanni chat
// patterns, the same data the bot serves through its /pattern command.
//
// Every lookup downloads the pattern document from the source; configure a
// Redis or Valkey cache with a bounded TTL to share documents between calls.
//
//	client, _ := patternbot.New(ctx,
//	    patternbot.WithValkey("localhost:6379", ""),
//	    patternbot.WithCacheTTL(5*time.Minute),
//	)
//	defer client.Close()
//
//	patterns, _ := client.Lookup(ctx, "chat.party")
//	for _, p := range patterns {
//	    fmt.Println(p.Key, p.Regex)
//	}
//
//	msg, _ := client.Message(ctx, "chat.party") // chat-formatted reply
package patternbot
