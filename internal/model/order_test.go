package model

import "testing"

func TestSumLines(t *testing.T) {
    lines := []OrderLine{
        {BookID: 1, Quantity: 2, UnitPrice: 50, LineSubtotal: 100},
        {BookID: 2, Quantity: 1, UnitPrice: 25.5, LineSubtotal: 25.5},
    }
    if got := SumLines(lines); got != 125.5 {
        t.Errorf("SumLines = %v, want 125.5", got)
    }
    if got := SumLines(nil); got != 0 {
        t.Errorf("SumLines(nil) = %v, want 0", got)
    }
}
