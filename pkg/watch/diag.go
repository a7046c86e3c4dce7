package watch

// Diagnostic events carry stable tokens in their Path field so callers can
// match on the prefix. Tokens beginning with "e/" are errors, "w/" are
// warnings; "sys" names a failed system call, "self" a watcher-level
// condition.
const (
	diagInotifyInit = "e/sys/inotify_init"
	diagEpollCreate = "e/sys/epoll_create"
	diagEpollCtl    = "e/sys/epoll_ctl"
	diagEpollWait   = "e/sys/epoll_wait@"
	diagRead        = "e/sys/read@"
	diagClose       = "e/sys/close@"
	diagSysResource = "e/self/sys_resource@"
	diagPathMap     = "e/self/path_map@"
	diagEventRecv   = "e/self/event_recv@"
	diagOverflow    = "e/self/overflow@"
	diagNotWatched  = "w/sys/not_watched@"
)

// diagEvent wraps a token in a Watcher-kind event.
func diagEvent(token string) Event {
	return Event{Path: token, Effect: EffectOther, PathKind: KindWatcher}
}

// diagAt appends the base path to a token that names a watched root.
func diagAt(token, base string) Event {
	return diagEvent(token + base)
}

// diagSubdir marks a subdirectory that could not be watched while its base
// path continues to be.
func diagSubdir(base, sub string) Event {
	return diagEvent(diagNotWatched + base + "@" + sub)
}
