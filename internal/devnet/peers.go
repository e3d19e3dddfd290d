package devnet

// Peers always reports a single connected peer and a finished IBD, enough
// for a solo devnet loop that still exercises the real peer/IBD gating
// path instead of relying entirely on AllowSolo.
type Peers struct{}

func (Peers) PeerCount() int               { return 1 }
func (Peers) IsInitialBlockDownload() bool { return false }
