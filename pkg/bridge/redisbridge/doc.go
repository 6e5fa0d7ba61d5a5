/*
Package redisbridge connects wakeflow channels to Redis Pub/Sub so that
several processes can share one stream of messages.

Messages travel as JSON envelopes:

	{"id": "<uuid>", "channel": "orders", "payload": {...}, "published_at": "2024-01-01T12:00:00Z"}

Inbound, Relay subscribes to the configured Redis channels and sends every
envelope to a broadcast channel, so any number of local receivers see the
same messages. Outbound, Forward drains an MPSC channel and publishes each
envelope, which lets many local producers share one publisher.

Configuration:

	cfg, err := redisbridge.LoadConfig() // reads .env and the environment
	if err != nil {
		return err
	}
	client, err := redisbridge.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	bridge, err := redisbridge.New(client, cfg)

Environment variables:

	BRIDGE_NAME             name used in logs and metrics (default "redis")
	REDIS_URL               redis://[:password@]host:port/db
	BRIDGE_CHANNELS         comma separated channels to relay (default "wakeflow")
	REDIS_CONNECT_TIMEOUT   bound on the initial ping (default 5s)
	BRIDGE_PUBLISH_TIMEOUT  bound on each publish (default 5s)

Inbound:

	tx, rx := broadcast.New[redisbridge.Envelope]()
	go bridge.Relay(ctx, tx) // closes tx on return

	for env := range rx.All(ctx) {
		var o Order
		if err := env.Decode(&o); err != nil {
			continue
		}
		handle(o)
	}

Relay skips messages that are not envelopes and keeps running when no local
receiver is registered. It returns when ctx ends or the subscription fails.

Outbound:

	tx, rx := mpsc.New[redisbridge.Envelope]()
	go bridge.Forward(ctx, rx) // closes rx on return

	env, _ := redisbridge.NewEnvelope("orders", order)
	tx.Send(env)

For one-off messages, Publish builds and sends the envelope directly.

Errors from Redis are returned as *errors.OperationError. With
Config.Metrics set, relayed messages and errors are counted per direction.
*/
package redisbridge
