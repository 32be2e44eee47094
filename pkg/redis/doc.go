// Package redis connects the data layer to Redis through go-redis.
//
// Connect retries the initial ping with exponential backoff, Healthcheck
// plugs the client into readiness probes, and Key builds namespaced keys.
//
//	var cfg redis.Config
//	_ = config.Load(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	key := redis.Key(cfg.KeyPrefix, "follows", followerID)
package redis
