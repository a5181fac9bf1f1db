package asm

import (
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/label"
)

// buildCodeModel resolves every label-bearing element the Assembler
// collected against the converged bci layout and assembles the final
// CodeModel, including the LineNumberTable/LocalVariable(Type)Table
// attributes a transform's line/local-variable elements imply.
func buildCodeModel(
	codeBytes []byte,
	maxStack, maxLocals int,
	excCatches []code.ExceptionCatch,
	lineNumbers []code.LineNumber,
	localVars []code.LocalVariable,
	localVarTypes []code.LocalVariableType,
	bciOf map[*label.Label]int,
) (*code.CodeModel, error) {
	exceptions := make([]code.ExceptionEntry, len(excCatches))
	for i, e := range excCatches {
		exceptions[i] = code.ExceptionEntry{
			StartPC: bciOf[e.Start], EndPC: bciOf[e.End], HandlerPC: bciOf[e.Handler],
			CatchType: e.CatchType,
		}
	}

	var attrs []attr.Attribute
	if len(lineNumbers) > 0 {
		entries := make([]code.LineNumberTableEntry, len(lineNumbers))
		for i, ln := range lineNumbers {
			entries[i] = code.LineNumberTableEntry{StartPC: bciOf[ln.At], Line: ln.Line}
		}
		attrs = append(attrs, &code.LineNumberTableAttr{Entries: entries})
	}
	if len(localVars) > 0 {
		entries := make([]code.LocalVariableTableEntry, len(localVars))
		for i, lv := range localVars {
			start := bciOf[lv.Start]
			entries[i] = code.LocalVariableTableEntry{
				StartPC: start, Length: bciOf[lv.End] - start,
				NameIndex: lv.NameIndex, DescriptorIndex: lv.DescriptorIndex, Slot: lv.Slot,
			}
		}
		attrs = append(attrs, &code.LocalVariableTableAttr{Entries: entries})
	}
	if len(localVarTypes) > 0 {
		entries := make([]code.LocalVariableTypeTableEntry, len(localVarTypes))
		for i, lv := range localVarTypes {
			start := bciOf[lv.Start]
			entries[i] = code.LocalVariableTypeTableEntry{
				StartPC: start, Length: bciOf[lv.End] - start,
				NameIndex: lv.NameIndex, SignatureIndex: lv.SignatureIndex, Slot: lv.Slot,
			}
		}
		attrs = append(attrs, &code.LocalVariableTypeTableAttr{Entries: entries})
	}

	return code.NewCodeModel(maxStack, maxLocals, codeBytes, exceptions, attrs), nil
}
