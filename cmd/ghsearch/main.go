// Package main provides the entry point for the ghsearch CLI.
//
// ghsearch runs a GitHub web search for repositories, issues or wikis through
// a proxy and prints the result links. Repository results carry the owner and
// the language breakdown of each repository.
//
// Usage:
//
//	ghsearch search --type repositories --keyword openstack --proxy 51.91.109.83:80
//	ghsearch search --input input.json
//
// See --help for all available options.
package main

func main() {
	Execute()
}
