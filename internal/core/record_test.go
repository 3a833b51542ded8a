package core

import (
	"errors"
	"testing"
)

func TestDecodeTransactionsMigratesLegacyRecords(t *testing.T) {
	data := `[
		{"title":"Salary","amount":"+$2,500.00","category":"Other","color":"#4CAF50","dateTime":"Oct 1, 2026 09:00"},
		{"title":"Old","amount":"-$3.20","category":"Food","color":"#F44336"}
	]`
	txs, err := DecodeTransactions(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(txs))
	}
	if txs[0].Kind != Income || txs[0].Amount.StringFixed(2) != "2500.00" {
		t.Fatalf("unexpected first record %+v", txs[0])
	}
	if txs[1].Kind != Expense || txs[1].DateTime != "" {
		t.Fatalf("unexpected second record %+v", txs[1])
	}
}

func TestEncodeDecodePreservesOrder(t *testing.T) {
	in, _ := DecodeTransactions(`[
		{"title":"b","amount":"2.00","kind":"expense","category":"Food","dateTime":"Oct 2, 2026 10:00"},
		{"title":"a","amount":"1.00","kind":"income","category":"Other","dateTime":""}
	]`)
	enc, err := EncodeTransactions(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeTransactions(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length changed: %d -> %d", len(in), len(out))
	}
	for i := range in {
		if !in[i].Equal(out[i]) {
			t.Fatalf("record %d changed: %+v -> %+v", i, in[i], out[i])
		}
	}
}

func TestDecodeTransactionsMalformed(t *testing.T) {
	for _, data := range []string{"{", `[{"title":"x","amount":"abc","kind":"expense"}]`, `[{"amount":"1","kind":"loan"}]`} {
		if _, err := DecodeTransactions(data); !errors.Is(err, ErrMalformedData) {
			t.Fatalf("%q: expected ErrMalformedData, got %v", data, err)
		}
	}
	txs, err := DecodeTransactions("")
	if err != nil || len(txs) != 0 {
		t.Fatalf("empty input: %v %v", txs, err)
	}
}
