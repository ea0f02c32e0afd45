package ledger

// Package ledger hosts the stable, minimal DTOs shared with the external
// ledger-client collaborator. Keep these wire shapes small and versioned
// independently from any internal engine models.

// ContractVersion identifies the contract schema version for compatibility checks.
// Bump on breaking changes to the shapes below; consumers can pin or roll forward.
const ContractVersion = "v0.1.0"

// TxKind identifies the ledger transaction kinds the engine submits or replays.
type TxKind string

const (
	TxKindMint        TxKind = "mint"
	TxKindBurn        TxKind = "burn"
	TxKindOfferCreate TxKind = "offer_create"
	TxKindOfferAccept TxKind = "offer_accept"
	TxKindOfferCancel TxKind = "offer_cancel"
	TxKindStatus      TxKind = "status"
)

// ResultCode is the engine-level result string a ledger node reports for a
// submitted transaction. Success is ResultSuccess; everything else maps to a
// domain error on our side.
type ResultCode string

const (
	ResultSuccess             ResultCode = "tesSUCCESS"
	ResultInsufficientReserve ResultCode = "tecINSUFFICIENT_RESERVE"
	ResultInsufficientFee     ResultCode = "telINSUF_FEE_P"
	ResultPastSequence        ResultCode = "tefPAST_SEQ"
	ResultPreSequence         ResultCode = "terPRE_SEQ"
	ResultNoEntry             ResultCode = "tecNO_ENTRY"
	ResultObjectNotFound      ResultCode = "tecOBJECT_NOT_FOUND"
	ResultNoPermission        ResultCode = "tecNO_PERMISSION"
)

// TokenFlags is the flag bitfield attached at mint time.
type TokenFlags struct {
	Transferable bool `json:"transferable"`
	Burnable     bool `json:"burnable"`
	Mutable      bool `json:"mutable"`
}

// Memo is an auxiliary key/value attachment on a transaction. Chunked
// credential metadata and status events travel as memos.
type Memo struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
	Data  []byte `json:"data"`
}
