package commands

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bish-sh/bish/core/vfs"
	"github.com/bish-sh/bish/core/vos"
)

// Curl performs HTTP requests through the network adapter; hosts outside
// the allow-list are refused.
func Curl(p *vos.Process) int {
	args := p.Argv[1:]
	method := "GET"
	var url, data, output string
	var headers []string
	failOnError := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-s" || arg == "--silent" || arg == "-L" || arg == "--location":
			// no progress meter, and redirects are followed by the client
		case arg == "-f" || arg == "--fail":
			failOnError = true
		case arg == "-X" && i+1 < len(args):
			i++
			method = args[i]
		case (arg == "-d" || arg == "--data") && i+1 < len(args):
			i++
			data = args[i]
			if method == "GET" {
				method = "POST"
			}
		case (arg == "-H" || arg == "--header") && i+1 < len(args):
			i++
			headers = append(headers, args[i])
		case (arg == "-o" || arg == "--output") && i+1 < len(args):
			i++
			output = args[i]
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(p.Stderr, "curl: option %s: is unknown\n", arg)
			return 2
		default:
			url = arg
		}
	}
	if url == "" {
		fmt.Fprintln(p.Stderr, "curl: no URL specified")
		return 2
	}
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	if p.Net == nil || !p.Net.Enabled() {
		fmt.Fprintf(p.Stderr, "curl: (6) Could not resolve host: network access is disabled\n")
		return 6
	}
	var body io.Reader
	if data != "" {
		body = strings.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		fmt.Fprintf(p.Stderr, "curl: (3) %v\n", err)
		return 3
	}
	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if ok {
			req.Header.Set(strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}
	resp, err := p.Net.Do(req)
	if err != nil {
		fmt.Fprintf(p.Stderr, "curl: (7) %v\n", err)
		return 7
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(p.Stderr, "curl: (18) %v\n", err)
		return 18
	}
	if failOnError && resp.StatusCode >= 400 {
		fmt.Fprintf(p.Stderr, "curl: (22) The requested URL returned error: %d\n", resp.StatusCode)
		return 22
	}
	if output != "" {
		if err := p.FS.WriteFile(p.Path(output), payload, vfs.WriteOpts{}); err != nil {
			fmt.Fprintf(p.Stderr, "curl: (23) %s\n", fsMsg(err))
			return 23
		}
		return 0
	}
	p.Stdout.Write(payload)
	return 0
}

func init() {
	register("curl", Curl)
}
