package remote

import (
	"errors"
	"testing"
)

func TestClassifyCode_SuccessIsNil(t *testing.T) {
	if err := classifyCode(0, ""); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestClassifyCode_FileTooLarge(t *testing.T) {
	err := classifyCode(codeFileTooLarge, "too big")
	if err == nil {
		t.Fatal("expected error")
	}

	if !IsFileTooLarge(err) {
		t.Errorf("expected IsFileTooLarge to be true for %v", err)
	}

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatal("expected *ServiceError")
	}

	if se.Code != codeFileTooLarge {
		t.Errorf("got code %d, want %d", se.Code, codeFileTooLarge)
	}
}

func TestClassifyCode_UnmappedCodePreservesNumber(t *testing.T) {
	err := classifyCode(59999, "weird")

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatal("expected *ServiceError")
	}

	if se.Code != 59999 {
		t.Errorf("got code %d, want 59999", se.Code)
	}

	if IsFileTooLarge(err) {
		t.Error("unmapped code must not classify as FileTooLarge")
	}
}
