package jsoncodec

import (
	"context"
	"fmt"

	skemata "github.com/reoring/skemata"
)

// EncodeSchema renders a schema graph as JSON via the meta-schema, so schemas
// travel over the same wire as the values they describe.
func EncodeSchema(ctx context.Context, s skemata.Schema) ([]byte, error) {
	return Encode(ctx, skemata.MetaSchema(), skemata.SchemaToAST(s))
}

// DecodeSchema rebuilds a schema graph from its meta-schema JSON. The result
// decodes values onto map and CaseValue carriers.
func DecodeSchema(ctx context.Context, data []byte, opts ...skemata.DecodeOpt) (skemata.Schema, error) {
	v, err := Decode(ctx, skemata.MetaSchema(), data, opts...)
	if err != nil {
		return nil, err
	}
	ast, ok := v.(*skemata.AST)
	if !ok {
		return nil, skemata.WrapAsIssues(fmt.Errorf("meta-schema decode produced %T, not *AST", v))
	}
	s, err := skemata.ASTToSchema(ast)
	if err != nil {
		return nil, skemata.WrapAsIssues(err)
	}
	return s, nil
}
