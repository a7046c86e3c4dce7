package watch

// Watch monitors path (a file or a directory tree, recursively) and invokes
// sink for every normalized event until sig is released. It blocks on the
// calling goroutine and returns only after all adapter resources have been
// torn down.
//
// Watch returns true only if the signal transitioned cleanly to released
// and the adapter's teardown reported success. Setup and loop-fatal errors
// return false and are also delivered through the sink as Watcher-kind
// diagnostic events; no error or panic ever escapes Watch.
func Watch(path string, sink Sink, sig *Signal) bool {
	return WatchWith(path, sink, sig, Options{})
}

// WatchWith is Watch with explicit Options.
func WatchWith(path string, sink Sink, sig *Signal, opts Options) bool {
	opts.setDefaults()
	return watchOS(path, sink, sig, opts)
}
