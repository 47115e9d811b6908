package wire

import "encoding/binary"

// ReceiptKind enumerates the acknowledgement kinds a receipt payload may
// carry.
type ReceiptKind uint8

const (
	ReceiptKindDelivered ReceiptKind = 0x00
	ReceiptKindRead      ReceiptKind = 0x01
)

// IsValid reports whether k is a defined receipt kind.
func (k ReceiptKind) IsValid() bool {
	return k == ReceiptKindDelivered || k == ReceiptKindRead
}

// MaxReceiptIDLen bounds the original_packet_id varbytes field.
const MaxReceiptIDLen = 255

// MaxBatchedReceipts is the largest number of receipts a single batched
// receipt payload may carry.
const MaxBatchedReceipts = 11

// Receipt is kind(u8) | original_packet_id(varbytes) |
// original_timestamp(u64) | original_source(PeerId).
type Receipt struct {
	Kind              ReceiptKind
	OriginalPacketID  []byte
	OriginalTimestamp uint64
	OriginalSource    PeerID
}

func encodeReceipt(r *Receipt, buf []byte) ([]byte, error) {
	if !r.Kind.IsValid() {
		return nil, ErrUnknownEnum
	}
	if len(r.OriginalPacketID) > MaxReceiptIDLen {
		return nil, ErrFieldTooLong
	}
	buf = append(buf, byte(r.Kind), byte(len(r.OriginalPacketID)))
	buf = append(buf, r.OriginalPacketID...)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], r.OriginalTimestamp)
	buf = append(buf, ts[:]...)
	buf = append(buf, r.OriginalSource[:]...)
	return buf, nil
}

func decodeReceipt(data []byte) (*Receipt, int, error) {
	if len(data) < 2 {
		return nil, 0, ErrPayloadTruncated
	}
	kind := ReceiptKind(data[0])
	if !kind.IsValid() {
		return nil, 0, ErrUnknownEnum
	}
	idLen := int(data[1])
	need := 2 + idLen + 8 + PeerIDLen
	if len(data) < need {
		return nil, 0, ErrPayloadTruncated
	}
	r := &Receipt{
		Kind:              kind,
		OriginalPacketID:  append([]byte(nil), data[2:2+idLen]...),
		OriginalTimestamp: binary.BigEndian.Uint64(data[2+idLen : 2+idLen+8]),
	}
	copy(r.OriginalSource[:], data[2+idLen+8:need])
	return r, need, nil
}

// EncodeReceiptPayload serializes a single receipt.
func EncodeReceiptPayload(r *Receipt) ([]byte, error) {
	return encodeReceipt(r, make([]byte, 0, 2+len(r.OriginalPacketID)+8+PeerIDLen))
}

// DecodeReceiptPayload parses a single receipt payload.
func DecodeReceiptPayload(data []byte) (*Receipt, error) {
	r, n, err := decodeReceipt(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, ErrPayloadTruncated
	}
	return r, nil
}

// BatchedReceiptPayload is count(u8 <= 11) | Receipt*count.
type BatchedReceiptPayload struct {
	Receipts []Receipt
}

// EncodeBatchedReceiptPayload serializes a batch, rejecting more than
// MaxBatchedReceipts entries.
func EncodeBatchedReceiptPayload(b *BatchedReceiptPayload) ([]byte, error) {
	if len(b.Receipts) > MaxBatchedReceipts {
		return nil, ErrTooManyEntries
	}
	buf := []byte{byte(len(b.Receipts))}
	var err error
	for i := range b.Receipts {
		buf, err = encodeReceipt(&b.Receipts[i], buf)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeBatchedReceiptPayload parses a batch of receipts.
func DecodeBatchedReceiptPayload(data []byte) (*BatchedReceiptPayload, error) {
	if len(data) < 1 {
		return nil, ErrPayloadTruncated
	}
	count := int(data[0])
	if count > MaxBatchedReceipts {
		return nil, ErrTooManyEntries
	}
	rest := data[1:]
	receipts := make([]Receipt, 0, count)
	for i := 0; i < count; i++ {
		r, n, err := decodeReceipt(rest)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *r)
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, ErrPayloadTruncated
	}
	return &BatchedReceiptPayload{Receipts: receipts}, nil
}
