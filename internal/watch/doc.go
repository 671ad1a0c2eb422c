// Package watch drives stylepipe's watch mode. It monitors the directories
// behind the configured stylesheet globs, debounces rapid events and reruns
// the style pipeline after each burst of changes.
package watch
