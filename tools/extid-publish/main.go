// Command extid-publish appends an external identifier entry to a Redis
// stream so the rolodex consumer can be exercised by hand.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/md-rashed-zaman/rolodex/libs/redisx"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		redisURL   = flag.String("redis-url", getenv("REDIS_URL", "redis://localhost:6379/0"), "redis connection url")
		stream     = flag.String("stream", getenv("CONSUMER_STREAM", "outbox:ExternalIdentifierCreated"), "target stream")
		partyID    = flag.Int64("party-id", 0, "party id the identifier belongs to")
		systemName = flag.String("system-name", "", "external system name")
		externalID = flag.String("external-id", "", "identifier within the external system")
		wrap       = flag.Bool("wrap", false, "publish as a single JSON data field, the way the outbox relay does")
	)
	flag.Parse()

	if *partyID <= 0 {
		fatal("--party-id must be positive")
	}
	if strings.TrimSpace(*systemName) == "" || strings.TrimSpace(*externalID) == "" {
		fatal("--system-name and --external-id are required")
	}

	values, err := buildValues(*partyID, *systemName, *externalID, *wrap)
	if err != nil {
		fatal(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := redisx.Open(ctx, *redisURL)
	if err != nil {
		fatal(err.Error())
	}
	defer rdb.Close()

	id, err := rdb.XAdd(ctx, &redis.XAddArgs{Stream: *stream, Values: values}).Result()
	if err != nil {
		fatal(err.Error())
	}
	fmt.Printf("stream=%s id=%s\n", *stream, id)
}

func buildValues(partyID int64, systemName, externalID string, wrap bool) (map[string]any, error) {
	fields := map[string]any{
		"party_id":    partyID,
		"system_name": systemName,
		"external_id": externalID,
	}
	if !wrap {
		return fields, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": string(b)}, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
