package factory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factory/internal/ir"
)

func TestExecute_Routes(t *testing.T) {
	f := New()
	s := deployed(t, f, ir.AuthOpen)
	tx := begin(t, s)
	ctx := context.Background()
	admin := Env{Caller: adminAddr}

	resp, err := f.Execute(ctx, tx, Env{Caller: aliceAddr}, ir.ExecuteMsg{
		CreateInstance: &ir.CreateInstance{Msg: json.RawMessage(`{"k":1}`)},
	})
	require.NoError(t, err)
	require.Len(t, resp.SubMsgs, 1)

	_, err = f.Execute(ctx, tx, admin, ir.ExecuteMsg{SetStatus: &ir.SetStatus{Status: ir.StatusPaused}})
	require.NoError(t, err)
	_, err = f.Execute(ctx, tx, admin, ir.ExecuteMsg{RotateAdmin: &ir.RotateAdmin{NewAdmin: "dave"}})
	require.NoError(t, err)
	_, err = f.Execute(ctx, tx, Env{Caller: "dave"}, ir.ExecuteMsg{UpdateCode: &ir.UpdateCode{Code: ir.CodeRef{CodeID: 5, CodeHash: testCode.CodeHash}}})
	require.NoError(t, err)

	cfg, err := tx.LoadConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.FactoryConfig{
		Admin:    "dave",
		CodeRef:  ir.CodeRef{CodeID: 5, CodeHash: testCode.CodeHash},
		AuthMode: ir.AuthOpen,
		Status:   ir.StatusPaused,
	}, cfg)
}

func TestExecute_RejectsAmbiguousMsg(t *testing.T) {
	f := New()
	s := deployed(t, f, ir.AuthOpen)
	tx := begin(t, s)

	_, err := f.Execute(context.Background(), tx, Env{Caller: adminAddr}, ir.ExecuteMsg{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.Execute(context.Background(), tx, Env{Caller: adminAddr}, ir.ExecuteMsg{
		SetStatus:   &ir.SetStatus{Status: ir.StatusPaused},
		RotateAdmin: &ir.RotateAdmin{NewAdmin: "x"},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestQuery_Routes(t *testing.T) {
	f := New()
	s := deployed(t, f, ir.AuthOpen)
	tx := begin(t, s)
	createAndReply(t, f, tx, aliceAddr, "inst-1")
	require.NoError(t, tx.Commit())
	ctx := context.Background()

	res, err := f.Query(ctx, s, ir.QueryMsg{GetInstance: &ir.GetInstance{Address: "inst-1"}})
	require.NoError(t, err)
	require.NotNil(t, res.Instance)
	assert.Equal(t, aliceAddr, res.Instance.CreatedBy)

	res, err = f.Query(ctx, s, ir.QueryMsg{ListInstances: &ir.ListInstances{Limit: 10}})
	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Len(t, res.Page.Instances, 1)

	res, err = f.Query(ctx, s, ir.QueryMsg{GetConfig: true})
	require.NoError(t, err)
	require.NotNil(t, res.Config)
	assert.Equal(t, adminAddr, res.Config.Admin)

	_, err = f.Query(ctx, s, ir.QueryMsg{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.Query(ctx, s, ir.QueryMsg{GetInstance: &ir.GetInstance{Address: "ghost"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryResult_JSON(t *testing.T) {
	cfg := ir.FactoryConfig{Admin: "a", CodeRef: testCode, AuthMode: ir.AuthOpen, Status: ir.StatusPaused}
	data, err := json.Marshal(QueryResult{Config: &cfg})
	require.NoError(t, err)
	assert.JSONEq(t, `{"config":{"admin":"a","code_ref":{"code_id":1,"code_hash":"`+testCode.CodeHash+`"},"auth_mode":"open","status":"paused"}}`, string(data))
}
