package partition

import "github.com/bonbon-indexer/bonbon/ledger"

// Registry tracks the mapping from a metadata account's address (a PDA of
// its mint) back to that mint, learned the moment a CreateMetadataAccount
// variant is observed. Most metadata instructions other than the create
// variants reference only the metadata account, not the mint directly, so
// this is the only way to route them to the right partition.
//
// The registry is necessarily incomplete for any run that does not start
// at genesis: an instruction touching a metadata account created before
// the observed range begins has no entry to find. That is reported to the
// caller as an unresolved reference, not a hard error.
type Registry struct {
	mintByMetadataAccount map[ledger.Pubkey]ledger.Pubkey
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mintByMetadataAccount: make(map[ledger.Pubkey]ledger.Pubkey)}
}

// Record associates a metadata account address with its mint.
func (r *Registry) Record(metadataAccount, mint ledger.Pubkey) {
	r.mintByMetadataAccount[metadataAccount] = mint
}

// Lookup returns the mint for a previously recorded metadata account.
func (r *Registry) Lookup(metadataAccount ledger.Pubkey) (ledger.Pubkey, bool) {
	mint, ok := r.mintByMetadataAccount[metadataAccount]
	return mint, ok
}
