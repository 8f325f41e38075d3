/*
Package scout discovers the current job postings of a company from its career page.

A run starts from a site identifier. The engine first offers the model every
registered scraper tool; when none matches, it plans, writes, executes and
evaluates an extraction script in a bounded retry loop. The resulting raw listing
is filtered and formatted into a JSON job list and handed off through a RunStore.

# Usage

	gw := llm.NewGateway(model)
	tools := registry.NewRegistry().MustRegister(web.NewSummarizer())
	sandbox, _ := process.NewSandbox("./tmp")

	eng, err := scout.New(scout.Config{
		Sites: domain.SiteRegistry{"acme": "https://acme.example/careers"},
	},
		scout.WithModelGateway(gw),
		scout.WithToolInvoker(tools),
		scout.WithSandbox(sandbox),
	)
	if err != nil {
		log.Fatal(err)
	}

	state, err := eng.Run(ctx, "acme")

Runs of distinct sites are independent; RunAll executes them in parallel and
isolates per-site failures in its results.
*/
package scout
