package batchmap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BatchQuantities representa o mapeamento ordenado batchNumber -> quantidade
// a deduzir. A ordem de inserção é a ordem em que os lotes foram consumidos
// (validade ascendente) e é preservada na serialização JSON, pois ela carrega
// significado: ordem de consumo FEFO, replay idempotente e trilha de auditoria.
type BatchQuantities struct {
	keys   []string
	values map[string]*int
}

// New cria uma nova instância vazia de BatchQuantities
func New() *BatchQuantities {
	return &BatchQuantities{
		values: make(map[string]*int),
	}
}

// Set registra a quantidade a deduzir de um lote, preservando a ordem de inserção
func (m *BatchQuantities) Set(batchNumber string, quantity int) {
	if _, exists := m.values[batchNumber]; !exists {
		m.keys = append(m.keys, batchNumber)
	}
	q := quantity
	m.values[batchNumber] = &q
}

// SetNull registra um lote sem quantidade (quantidade nula no payload)
func (m *BatchQuantities) SetNull(batchNumber string) {
	if _, exists := m.values[batchNumber]; !exists {
		m.keys = append(m.keys, batchNumber)
	}
	m.values[batchNumber] = nil
}

// Get retorna a quantidade de um lote e se ele está presente com valor
func (m *BatchQuantities) Get(batchNumber string) (int, bool) {
	q, ok := m.values[batchNumber]
	if !ok || q == nil {
		return 0, false
	}
	return *q, true
}

// Len retorna o número de lotes no mapeamento
func (m *BatchQuantities) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys retorna os números de lote na ordem de inserção
func (m *BatchQuantities) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range percorre as entradas na ordem de inserção. Quantidade nula chega
// como ponteiro nil. Retornar erro interrompe a iteração.
func (m *BatchQuantities) Range(fn func(batchNumber string, quantity *int) error) error {
	for _, k := range m.keys {
		if err := fn(k, m.values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Total soma as quantidades presentes (entradas nulas são ignoradas)
func (m *BatchQuantities) Total() int {
	total := 0
	for _, k := range m.keys {
		if q := m.values[k]; q != nil {
			total += *q
		}
	}
	return total
}

// MarshalJSON serializa como objeto JSON preservando a ordem de inserção
func (m *BatchQuantities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if q := m.values[k]; q != nil {
			fmt.Fprintf(&buf, "%d", *q)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodifica um objeto JSON preservando a ordem das chaves
// do documento (um decode em map perderia a ordem)
func (m *BatchQuantities) UnmarshalJSON(data []byte) error {
	m.keys = nil
	m.values = make(map[string]*int)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("batchmap: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("batchmap: expected string key, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case nil:
			m.SetNull(key)
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return fmt.Errorf("batchmap: quantity for batch %q is not an integer: %w", key, err)
			}
			m.Set(key, int(n))
		default:
			return fmt.Errorf("batchmap: unexpected quantity for batch %q: %v", key, valTok)
		}
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
