// Package insitu couples independently written programs inside one parallel
// job. Ranks are partitioned into named groups by a process map, programs
// are wrapped into puppets that a rank steps cooperatively while they share
// values through a name map, and a controller/worker scheduler distributes
// work items over groups of worker ranks.
//
// End-users typically interact with the runtime through the Service façade:
//
//	srv, _ := insitu.New()
//	err := srv.Run(ctx, 4, func(ctx context.Context, rank *insitu.Rank) error {
//		pm, err := rank.ProcMap(groups)
//		...
//		p, err := rank.Load("simulation 50 3", pm)
//		...
//		return puppet.RunAll(ctx, p)
//	})
//
// Sessions described in YAML run through RunSession or the insitu command.
package insitu
