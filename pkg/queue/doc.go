// Package queue runs delayed work: scheduled campaign sends are stored as
// tasks and executed by a Worker once their time comes.
//
//   - Enqueuer stores a task, optionally delayed or pinned to a time.
//   - Worker polls storage, claims due tasks under a lock, runs the matching
//     Handler, and retries failures with linear backoff before parking them in
//     the dead letter queue.
//
// Storage is pluggable: MemoryStorage for tests and single-process setups,
// PostgresStorage (pgx, schema applied through goose from Migrations) for
// everything else.
//
// A task may carry a key. Enqueuing a task with a key replaces any pending
// task with the same key, and CancelByKey drops it, which is how a campaign is
// rescheduled or unscheduled.
//
//	type SendCampaign struct{ CampaignID string }
//
//	enq.Enqueue(ctx, SendCampaign{CampaignID: id},
//		queue.WithScheduledAt(at),
//		queue.WithKey("campaign:"+id))
//
//	worker.RegisterHandler(queue.NewTaskHandler(func(ctx context.Context, p SendCampaign) error {
//		return sender.Send(ctx, p.CampaignID)
//	}))
package queue
