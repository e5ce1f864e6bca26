// Package config defines the manifest and configuration for the trawl CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (TRAWL_ prefix)
//   - YAML manifest file
//
// # Manifest
//
//	concurrency: 20
//	workdir: ./mirror
//	bucket: file:///var/cache/trawl
//	git_depth: 1
//	retry:
//	  attempts: 5
//	  backoff: 1s
//	  max_backoff: 30s
//	resources:
//	  - name: language
//	    type: git
//	    url: https://example.com/lang/language.git
//	  - name: spec.pdf
//	    type: http
//	    url: https://example.com/spec/latest.pdf
//	  - name: packages
//	    type: index
//	    url: https://example.com/packages/index.json
//
// Resource types: "git" (shallow clone into workdir), "http" (store the
// body in the bucket), "index" (fetch a JSON list of name/url pairs and
// store each in the bucket under the index resource's name).
package config
