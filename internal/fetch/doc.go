// Package fetch orchestrates manifest resources through the task pool.
//
// A Mirror binds the pool, the HTTP client, and the destination storage
// together and turns each manifest resource into a task body:
//
//   - git resources are shallow-cloned into the workdir
//   - http resources are streamed into the bucket
//   - index resources fetch a JSON list of name/url pairs and submit one
//     further task per entry
//
// Task bodies handle their own failures: any error is reported through
// the task handle's closing line and never reaches the pool.
//
// # Usage
//
//	m := fetch.New(bucket, len(cfg.Resources), fetch.Options{
//	    Concurrency: cfg.Concurrency,
//	    Workdir:     cfg.Workdir,
//	    GitDepth:    cfg.GitDepth,
//	})
//
//	for _, r := range cfg.Resources {
//	    m.Fetch(ctx, r)
//	}
//	m.Wait()
package fetch
