package usecase

import (
	"testing"
)

func TestExtractPercentClaim(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("ADP funds 75% of the approved price.")
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %v", claims)
	}
	c := claims[0]
	if c.Field != "funding_percent" || c.Kind != ClaimNumeric || c.Number != 75 {
		t.Fatalf("unexpected claim %+v", c)
	}
}

func TestExtractClientShareClaim(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("The client pays 25 percent of the cost.")
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %v", claims)
	}
	if claims[0].Field != "client_share_percent" || claims[0].Number != 25 {
		t.Fatalf("unexpected claim %+v", claims[0])
	}
}

func TestExtractDollarClaim(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("The fee payable for this assessment is $77.20.")
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %v", claims)
	}
	if claims[0].Field != "fee" || claims[0].Number != 77.20 {
		t.Fatalf("unexpected claim %+v", claims[0])
	}
}

func TestExtractDollarClaimWithThousandsSeparator(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("The device price is $1,234.56 for the standard model.")
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %v", claims)
	}
	if claims[0].Field != "price" || claims[0].Number != 1234.56 {
		t.Fatalf("unexpected claim %+v", claims[0])
	}
}

func TestExtractIgnoresUnanchoredDollarAmounts(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("They gave me $50 for the trouble.")
	if len(claims) != 0 {
		t.Fatalf("dollar amount without a field keyword must be ignored, got %v", claims)
	}
}

func TestExtractNegativeCoverageClaim(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("Batteries and repairs are not covered by the program.")
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %v", claims)
	}
	c := claims[0]
	if c.Field != "covered" || c.Kind != ClaimBoolean || c.Truth {
		t.Fatalf("unexpected claim %+v", c)
	}
}

func TestExtractPositiveCoverageClaim(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("Metformin is covered as a general benefit.")
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %v", claims)
	}
	if claims[0].Field != "covered" || !claims[0].Truth {
		t.Fatalf("unexpected claim %+v", claims[0])
	}
}

func TestExtractNegativeWinsOverPositiveInOneSentence(t *testing.T) {
	claims := NewKeywordClaimExtractor().Extract("Although the base model is covered, this variant is not covered")
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %v", claims)
	}
	if claims[0].Truth {
		t.Fatalf("negation must win within a sentence, got %+v", claims[0])
	}
}

func TestExtractEmptyText(t *testing.T) {
	if claims := NewKeywordClaimExtractor().Extract("   \n "); claims != nil {
		t.Fatalf("expected nil for blank text, got %v", claims)
	}
}

func TestExtractMultipleSentences(t *testing.T) {
	text := "ADP funds 75% of the price. The device costs $500 at retail; hearing aids are not covered after age checks."
	claims := NewKeywordClaimExtractor().Extract(text)
	if len(claims) != 3 {
		t.Fatalf("expected three claims, got %v", claims)
	}
}
