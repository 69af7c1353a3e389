package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hn-frontpage/internal/config"
	"hn-frontpage/internal/redisclient"
	"hn-frontpage/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// pingCmd pings the configured Redis server and reports the cached batch.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and show the state of the cached front page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)

		store := cacheStore(cfg.Source, rdb)
		stories, savedAt, ok, err := store.LoadStories(ctx)
		switch {
		case err != nil:
			fmt.Fprintf(cmd.OutOrStdout(), "cache %s: unreadable: %v\n", store.Key(), err)
		case !ok:
			fmt.Fprintf(cmd.OutOrStdout(), "cache %s: empty\n", store.Key())
		default:
			ttl, _ := rdb.TTL(ctx, store.Key()).Result()
			fmt.Fprintf(cmd.OutOrStdout(), "cache %s: %d stories, saved %s, expires in %s\n",
				store.Key(), len(stories), savedAt.Local().Format(time.RFC3339), ttl)
		}
		return nil
	},
}

// clearCmd drops the cached batch so the next load goes to the network.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached front page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		store := cacheStore(cfg.Source, rdb)
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", store.Key())
		return nil
	},
}

func cacheStore(cfg config.SourceConfig, rdb *redis.Client) *storage.RedisStore {
	return storage.NewRedisStore(rdb, strings.TrimSpace(cfg.Tags), cfg.HitsPerPage, 0)
}

func init() {
	redisCmd.AddCommand(pingCmd, clearCmd)
}
