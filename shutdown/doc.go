// Package shutdown coordinates graceful process termination.
//
// Components register handlers, optionally grouped into phases; on an
// interrupt or termination signal (or an explicit call) the coordinator
// runs each phase in order, handlers within a phase concurrently, all
// bounded by one timeout. Shutdown runs exactly once no matter how many
// triggers race.
//
//	coord := shutdown.NewCoordinator(shutdown.DefaultConfig(), logger)
//	coord.RegisterWithPhase("http", stopServer, 10)
//	coord.RegisterWithPhase("scheduler", stopScheduler, 20)
//	coord.HandleSignals()
//	<-coord.Done()
//
// Order matters here: the HTTP surface stops accepting submissions
// before the scheduler drains its workers.
package shutdown
