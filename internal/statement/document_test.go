package statement

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tithing/internal/model"
)

const header = "Date,Amount,Type,Category,Description\n"

func TestParse_SampleFile(t *testing.T) {
	data, err := os.ReadFile("../../testdata/wellsfargo_checking.csv")
	require.NoError(t, err)

	doc, err := Parse(data, Options{})
	require.NoError(t, err)
	assert.Empty(t, doc.RowErrors)
	require.Len(t, doc.Transactions, 9)

	first := doc.Transactions[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "1250.00", first.Amount.StringFixed(2))
	assert.Equal(t, "*", first.Type)

	// The blank line on 6 shifts every later row down by one.
	reversal := doc.Transactions[4]
	assert.Equal(t, 7, reversal.Line)
	assert.True(t, reversal.Amount.IsNegative())

	assert.Equal(t, "1250.00", doc.Transactions[3].Amount.StringFixed(2))
	assert.Equal(t, "312.45", doc.Transactions[5].Amount.StringFixed(2))
}

func TestParse_EndToEndRows(t *testing.T) {
	data := header +
		`06/01/2025,"1000.00",Credit,Payroll,"MWD MILLWORK DEV PAYROLL"` + "\n" +
		`06/15/2025,"-50.00",Debit,Fees,"MILLWORK DEV PAYROLL refund"` + "\n"

	doc, err := Parse([]byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Transactions, 2)
	assert.Empty(t, doc.RowErrors)
	assert.Equal(t, "-50.00", doc.Transactions[1].Amount.StringFixed(2))
	assert.Equal(t, 3, doc.Transactions[1].Line)
}

func TestParse_CollectsRowErrors(t *testing.T) {
	data := header +
		"06/01/2025,1000.00,Credit,Payroll,PAYROLL\n" +
		"06/02/2025,1000.00,Credit,Payroll\n" +
		"\n" +
		"nope,1.00,Credit,Payroll,PAYROLL\n" +
		"06/03/2025,abc,Credit,Payroll,PAYROLL\n" +
		"06/04/2025,5.00,Credit,Payroll,PAYROLL\n"

	doc, err := Parse([]byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Transactions, 2)
	assert.Equal(t, 2, doc.Transactions[0].Line)
	assert.Equal(t, 7, doc.Transactions[1].Line)

	require.Len(t, doc.RowErrors, 3)
	assert.Equal(t, model.RowError{
		Line:   3,
		Raw:    "06/02/2025,1000.00,Credit,Payroll",
		Reason: model.ReasonStructural,
		Detail: "expected 5 fields, got 4",
	}, doc.RowErrors[0])
	assert.Equal(t, 5, doc.RowErrors[1].Line)
	assert.Equal(t, model.ReasonDate, doc.RowErrors[1].Reason)
	assert.Equal(t, 6, doc.RowErrors[2].Line)
	assert.Equal(t, model.ReasonAmount, doc.RowErrors[2].Reason)
	assert.Equal(t, "2 transactions, 3 row errors", doc.String())
}

func TestParse_QuotedNewlineKeepsRowTogether(t *testing.T) {
	data := header +
		"06/01/2025,1000.00,Credit,Payroll,\"MILLWORK DEV\nPAYROLL, INC\"\n" +
		"06/02/2025,abc,Credit,Payroll,x\n"

	doc, err := Parse([]byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Transactions, 1)
	assert.Equal(t, "MILLWORK DEV\nPAYROLL, INC", doc.Transactions[0].Description)
	assert.Equal(t, 2, doc.Transactions[0].Line)

	require.Len(t, doc.RowErrors, 1)
	assert.Equal(t, 4, doc.RowErrors[0].Line, "line count includes the embedded newline")
}

func TestParse_CSVSyntaxErrorIsRowError(t *testing.T) {
	data := header +
		"06/01/2025,10\"00,Credit,Payroll,x\n" +
		"06/02/2025,5.00,Credit,Payroll,x\n"

	doc, err := Parse([]byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Transactions, 1)
	require.Len(t, doc.RowErrors, 1)
	assert.Equal(t, 2, doc.RowErrors[0].Line)
	assert.Equal(t, model.ReasonStructural, doc.RowErrors[0].Reason)
	assert.Equal(t, "06/01/2025,10\"00,Credit,Payroll,x", doc.RowErrors[0].Raw)
}

func TestParse_HeaderCaseInsensitive(t *testing.T) {
	data := "\n  \ndate, AMOUNT ,type,Category,description\n06/01/2025,1.00,a,b,c\n"
	doc, err := Parse([]byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Transactions, 1)
	assert.Equal(t, 4, doc.Transactions[0].Line)
}

func TestParse_BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(header+"06/01/2025,1.00,a,b,c\n")...)
	doc, err := Parse(data, Options{})
	require.NoError(t, err)
	assert.Len(t, doc.Transactions, 1)
}

func TestParse_CRLF(t *testing.T) {
	data := "Date,Amount,Type,Category,Description\r\n06/01/2025,1.00,a,b,c\r\n06/02/2025,x,a,b,c\r\n"
	doc, err := Parse([]byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, doc.RowErrors, 1)
	assert.Equal(t, 3, doc.RowErrors[0].Line)
	assert.Equal(t, "06/02/2025,x,a,b,c", doc.RowErrors[0].Raw)
}

func TestParse_BadHeader(t *testing.T) {
	_, err := Parse([]byte("When,How Much,Type,Category,Description\n06/01/2025,1.00,a,b,c\n"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrHeader))
	assert.Equal(t, model.KindStructural, model.KindOf(err))
}

func TestParse_HeaderlessRejectedByDefault(t *testing.T) {
	_, err := Parse([]byte("\"06/01/2025\",\"1.00\",\"*\",\"\",\"PAYROLL\"\n"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrHeader))
}

func TestParse_Headerless(t *testing.T) {
	data := "\"06/01/2025\",\"1.00\",\"*\",\"\",\"PAYROLL\"\n\"06/02/2025\",\"2.00\",\"*\",\"\",\"PAYROLL\"\n"
	doc, err := Parse([]byte(data), Options{AllowHeaderless: true})
	require.NoError(t, err)
	require.Len(t, doc.Transactions, 2)
	assert.Equal(t, 1, doc.Transactions[0].Line)
}

func TestParse_HeaderlessStillRejectsGarbageHeader(t *testing.T) {
	_, err := Parse([]byte("foo,bar\n06/01/2025,1.00,a,b,c\n"), Options{AllowHeaderless: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrHeader))
}

func TestParse_Empty(t *testing.T) {
	for _, data := range []string{"", "\n\n", "   \r\n"} {
		_, err := Parse([]byte(data), Options{})
		require.Error(t, err, "input %q", data)
		assert.True(t, errors.Is(err, model.ErrEmptyFile))
	}
}

func TestParse_BlankRecordsOnly(t *testing.T) {
	_, err := Parse([]byte(",,,,\n\"\",\"\"\n"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEmptyFile))
}

func TestParse_InvalidUTF8(t *testing.T) {
	_, err := Parse([]byte(header+"06/01/2025,1.00,a,b,\xff\xfe\n"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEncoding))
}

func TestParse_HeaderOnly(t *testing.T) {
	doc, err := Parse([]byte(header), Options{})
	require.NoError(t, err)
	assert.Empty(t, doc.Transactions)
	assert.Empty(t, doc.RowErrors)
}

func TestParse_AllRowsFailed(t *testing.T) {
	_, err := Parse([]byte(header+"06/01/2025,1.00,a,b\n"), Options{})
	require.Error(t, err)

	var pe *model.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.KindAllRowsFailed, pe.Kind)
	require.Len(t, pe.Rows, 1)
	assert.Equal(t, model.ReasonStructural, pe.Rows[0].Reason)
	assert.Equal(t, []int{2}, pe.Lines())
}

func TestColumns_ReturnsCopy(t *testing.T) {
	cols := Columns()
	cols[0] = "When"
	assert.Equal(t, "Date", Columns()[0])

	doc, err := Parse([]byte(header+"06/01/2025,1.00,a,b,c\n"), Options{})
	require.NoError(t, err)
	assert.Len(t, doc.Transactions, 1)
}
