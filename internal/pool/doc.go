// Package pool runs task bodies through a bounded concurrency gate and
// renders a slotted, scrolling progress log.
//
// Each admitted task receives a [Task] handle and occupies one visual slot
// (a column in the output) from Beginf until Endf. Slots are assigned
// lowest-free-first and reused as tasks finish, so long-running tasks keep
// a stable column while short ones cycle through the remaining rows.
//
// # Usage
//
//	p := pool.New(pool.Options{Total: len(resources), Concurrency: 20})
//
//	for _, r := range resources {
//	    r := r
//	    p.Submit(ctx, func(t *pool.Task) {
//	        t.Beginf("fetching %s", r.URL)
//	        if err := fetch(ctx, r); err != nil {
//	            t.Endf("failed to fetch %s: %v", r.Name, err)
//	            return
//	        }
//	        t.Endf("fetched %s", r.Name)
//	    })
//	}
//
//	p.Wait()
//
// # Output Format
//
// One line per lifecycle event: a fixed-width completed/total fraction,
// one marker column per slot, then the message.
//
//	[0/4]┌    cloning https://example.com/a.git
//	[0/4]│┌   cloning https://example.com/b.git
//	[0/4]│├   b: resolving deltas
//	[1/4]│└   cloned b
//	[1/4]│┌   fetching https://example.com/c.tar.gz
//	[2/4]└│   cloned a
//
// Lines from different tasks interleave freely; each line self-describes
// its slot and the global completion count.
package pool
