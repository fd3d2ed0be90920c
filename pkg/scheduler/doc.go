/*
Package scheduler implements the Project Scheduler: the DAG of protocols
derived from input-pointer dependencies (the runs graph), the relation
graphs (SOURCE/TRANSFORM provenance), and the actions that move a
protocol through its lifecycle (launch, schedule, stop, reset, continue,
copy, delete) plus workflow export/import.

A Scheduler owns one project's Store and protocol-kind Registry, and runs
a background loop that periodically refreshes every active protocol from
its own local store copy:

	sched := scheduler.NewScheduler(store, registry, hosts, false)
	sched.Start()
	defer sched.Stop()

	err := sched.LaunchProtocol(p, false)
*/
package scheduler
