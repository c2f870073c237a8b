package output

import (
	"fmt"

	"github.com/dmagro/eth-rpc-client/internal/client"
)

type jsonReceipt struct {
	*client.Receipt
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// Receipt renders a mined transaction. err is the error that came with the
// receipt, if any (a revert), and is shown next to it.
func (p *Printer) Receipt(r *client.Receipt, err error) error {
	if p.JSON() {
		return p.writeJSON(receiptJSON(r, err))
	}
	p.title("Transaction Receipt")
	p.receiptFields(r, err)
	fmt.Fprintln(p.w)
	return nil
}

// Deployment renders the receipt of a contract creation.
func (p *Printer) Deployment(r *client.Receipt) error {
	if p.JSON() {
		out := receiptJSON(r, nil)
		return p.writeJSON(map[string]any{
			"contractAddress": r.ContractAddress.Hex(),
			"receipt":         out,
		})
	}
	p.title("Contract Deployed")
	p.field("Address", green(r.ContractAddress.Hex()))
	p.receiptFields(r, nil)
	fmt.Fprintln(p.w)
	return nil
}

func receiptJSON(r *client.Receipt, err error) jsonReceipt {
	out := jsonReceipt{Receipt: r, Succeeded: r.Succeeded()}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func (p *Printer) receiptFields(r *client.Receipt, err error) {
	status := green("✓ success")
	if !r.Succeeded() {
		status = red("✗ reverted")
	}
	p.field("Status", status)
	p.field("Tx hash", r.TxHash)
	p.field("Block", fmt.Sprintf("%d (%s)", r.BlockNumber, truncateHash(r.BlockHash)))
	p.field("From", r.From.Hex())
	if r.To != nil {
		p.field("To", r.To.Hex())
	}
	p.field("Gas used", fmt.Sprintf("%d", r.GasUsed))
	if err != nil {
		p.field("Error", red(err.Error()))
	}
}
