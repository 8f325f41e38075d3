package workflow

import (
	"fmt"
	"strings"

	"github.com/aretw0/scout/pkg/ports"
)

const agentSystemPrompt = `You must ONLY use the available tools to extract job listings based on the provided url.
- If a tool matches: use it and return the results using the url as input
- If NO tool matches: respond with exactly one word: No

Do not explain, do not apologize, do not add any other text.`

const plannerSystemPrompt = `You are a helpful assistant with the following task:
Design a strategy to write a script that extracts the jobs and their application urls listed on the career page provided as input.
You may read the page with the available tools before answering.`

const evaluatorSystemPrompt = `You are an expert code evaluator. You will carefully check that the code ran correctly by making sure that:

1. the exit status is 0
2. there is no stderr
3. the stdout looks like a list of job titles each followed by its application link (and date posted, if available)

If all pass, respond with exactly: Yes
Otherwise, respond with the error message.`

func plannerRequest(url string) string {
	return fmt.Sprintf("can you design a strategy to extract jobs and urls from this career webpage: '%s'?", url)
}

func writerSystemPrompt(cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert programmer ready to write clean and concise %s code. Please ensure that:\n\n", cfg.ScriptLanguage)
	n := 1
	if len(cfg.ScriptLibraries) > 0 {
		fmt.Fprintf(&b, "%d. you use %s\n", n, strings.Join(cfg.ScriptLibraries, ", "))
		n++
	}
	fmt.Fprintf(&b, "%d. you only output %s code\n", n, cfg.ScriptLanguage)
	fmt.Fprintf(&b, "%d. you DO NOT include code block markers in your output\n", n+1)
	fmt.Fprintf(&b, "%d. the program prints one job per line, as the job title followed by its application url\n", n+2)
	return b.String()
}

func writerRequest(lang, site, url, pending string) string {
	q := fmt.Sprintf("can you write a short %s script to list the jobs from the company %s career page (%s)?", lang, site, url)
	if pending != "" {
		q += "\n" + pending
	}
	return q
}

func evaluationRequest(run ports.ScriptRun, note string) string {
	req := fmt.Sprintf("Check whether the code ran successfully based on the following output\n%s", runReport(run))
	if note != "" {
		req += "\n* note: " + note
	}
	return req
}

func runReport(run ports.ScriptRun) string {
	return fmt.Sprintf("* exit status: %d\n* stdout: %s\n* stderr: %s", run.ExitCode, run.Stdout, run.Stderr)
}

func rewriteRequest(script string, run ports.ScriptRun, problem string) string {
	return fmt.Sprintf("Here is the code that you previously wrote:\n%q\nwhich got this output %q and got this error: %q - can you re-write the code by fixing the error?",
		script, run.Stdout, problem)
}

func filterSystemPrompt(cfg Config) string {
	var b strings.Builder
	b.WriteString("You are a strict job filter. ONLY return jobs that are directly related to:\n")
	for _, t := range cfg.IncludeTopics {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	if len(cfg.ExcludeTopics) > 0 {
		fmt.Fprintf(&b, "\nEXCLUDE jobs like: %s, or any role not directly involving the above fields.\n", strings.Join(cfg.ExcludeTopics, ", "))
	}
	b.WriteString("Return ONLY the filtered job list in the same format.")
	return b.String()
}

func filterRequest(list string) string {
	return "Filter and return ONLY relevant jobs from:\n" + list
}

func formatRequest(list string) string {
	return fmt.Sprintf(`can you split this list %s, which contains job name and url, into a nice json format?
The output must be a JSON object of the shape {"jobs": [{"name": "...", "url": "..."}]}.
ONLY output the JSON, without code block markers.`, list)
}
