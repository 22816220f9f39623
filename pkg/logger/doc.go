// Package logger builds the service's *slog.Logger and provides attribute
// helpers so the same keys are used across packages.
//
// Production and staging log JSON at info level; development logs text at
// debug level. Context extractors (request id, environment) are evaluated on
// every record by a handler decorator, so handlers only need to pass ctx:
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "emailcraft"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "campaign sent", logger.CampaignID(id), logger.Count(n))
package logger
