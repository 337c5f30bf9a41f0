package model

// Position is one lot of a holding: a signed share quantity plus the
// cost it was acquired at, when known. Positions are reconstructed on
// demand from a transaction history; they are never persisted.
type Position struct {
	Units Amount
	Cost  *Cost
}
