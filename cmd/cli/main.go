package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amirasaad/masroofy/infra/initializer"
	"github.com/amirasaad/masroofy/pkg/app"
	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/dto"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	promptColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	mutedColor   = color.New(color.FgHiBlack)
)

const usage = `Commands:
  balance                          show your balance
  deposit <amount>                 top up your wallet (guardians)
  transfer <dependent> <amount>    send allowance to a dependent
  expense <amount> <description>   record spending
  history [income|expense]         list transactions
  budget                           this month's budget status
  forecast                         safe daily spend until month end
  dependents                       list your dependents
  add-dependent <name> <password>  create a dependent
  help                             show this help
  exit                             quit`

func main() {
	if err := run(); err != nil {
		errorColor.Fprintln(os.Stderr, err) //nolint:errcheck
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	cfg.Auth = &config.Auth{Strategy: "basic"}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close() //nolint:errcheck

	in := bufio.NewReader(os.Stdin)
	s := newSession(app.New(deps, cfg), os.Stdout)

	promptColor.Print("Username: ") //nolint:errcheck
	identity, err := in.ReadString('\n')
	if err != nil {
		return err
	}
	password, err := readPassword(in)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := s.login(ctx, strings.TrimSpace(identity), password); err != nil {
		return err
	}
	return s.loop(ctx, in)
}

func readPassword(in *bufio.Reader) (string, error) {
	promptColor.Print("Password: ") //nolint:errcheck
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		return string(raw), err
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// session is one logged in user at the prompt.
type session struct {
	app   *app.App
	out   io.Writer
	actor *account.Account
}

func newSession(a *app.App, out io.Writer) *session {
	return &session{app: a, out: out}
}

func (s *session) login(ctx context.Context, identity, password string) error {
	acc, err := s.app.AuthService.Login(ctx, identity, password)
	if err != nil {
		return fmt.Errorf("login failed: %s", domain.Reason(err))
	}
	s.actor = acc
	successColor.Fprintf(s.out, "Welcome %s (%s)\n", acc.Username, acc.Role) //nolint:errcheck
	return nil
}

func (s *session) loop(ctx context.Context, in *bufio.Reader) error {
	for {
		promptColor.Fprint(s.out, "masroofy> ") //nolint:errcheck
		line, err := in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			quit, cmdErr := s.execute(ctx, line)
			if cmdErr != nil {
				errorColor.Fprintf(s.out, "error: %s\n", domain.Reason(cmdErr)) //nolint:errcheck
			}
			if quit {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// execute runs one command line. It reports true when the user asked to quit.
func (s *session) execute(ctx context.Context, line string) (bool, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	id := s.actor.ID
	switch cmd, rest := strings.ToLower(args[0]), args[1:]; cmd {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprintln(s.out, usage) //nolint:errcheck
	case "balance":
		bal, err := s.app.DirectoryService.Balance(ctx, id)
		if err != nil {
			return false, err
		}
		successColor.Fprintf(s.out, "Balance: %s\n", bal) //nolint:errcheck
	case "deposit":
		if len(rest) != 1 {
			return false, usageError("deposit <amount>")
		}
		amount, err := money.Parse(rest[0])
		if err != nil {
			return false, err
		}
		res, err := s.app.WalletService.Deposit(ctx, commands.Deposit{ActorID: id, Amount: amount})
		if err != nil {
			return false, err
		}
		successColor.Fprintf(s.out, "Deposited %s. Balance: %s\n", amount, res.Balance) //nolint:errcheck
	case "transfer":
		if len(rest) != 2 {
			return false, usageError("transfer <dependent> <amount>")
		}
		amount, err := money.Parse(rest[1])
		if err != nil {
			return false, err
		}
		dep, err := s.app.DirectoryService.FindByName(ctx, rest[0])
		if err != nil {
			return false, err
		}
		if dep == nil || !dep.IsDependentOf(id) {
			return false, domain.Errorf(domain.ErrNotFound, "no dependent named %q", rest[0])
		}
		res, err := s.app.WalletService.Transfer(ctx, commands.Transfer{ActorID: id, DependentID: dep.ID, Amount: amount})
		if err != nil {
			return false, err
		}
		successColor.Fprintf(s.out, "Sent %s to %s. Your balance: %s, %s's balance: %s\n", //nolint:errcheck
			amount, dep.Username, res.GuardianBalance, dep.Username, res.DependentBalance)
	case "expense":
		if len(rest) < 2 {
			return false, usageError("expense <amount> <description>")
		}
		amount, err := money.Parse(rest[0])
		if err != nil {
			return false, err
		}
		res, err := s.app.WalletService.Expense(ctx, commands.Expense{
			ActorID:     id,
			Amount:      amount,
			Description: strings.Join(rest[1:], " "),
		})
		if err != nil {
			return false, err
		}
		successColor.Fprintf(s.out, "Spent %s. Balance: %s\n", amount, res.Balance) //nolint:errcheck
	case "history":
		return false, s.history(ctx, rest)
	case "budget":
		b, err := s.app.LedgerService.BudgetStatus(ctx, id, id)
		if err != nil {
			return false, err
		}
		statusColor(b.Status).Fprintf(s.out, "Budget %s, spent %s, remaining %s (%.2f%%)\n", //nolint:errcheck
			b.TotalBudget, b.Spent, b.Remaining, b.Percentage)
	case "forecast":
		f, err := s.app.LedgerService.DailyForecast(ctx, id)
		if err != nil {
			return false, err
		}
		successColor.Fprintf(s.out, "Balance %s over %d days: %s per day\n", //nolint:errcheck
			f.CurrentBalance, f.DaysRemaining, f.SafeDailySpend)
	case "dependents":
		deps, err := s.app.DirectoryService.ListDependents(ctx, id)
		if err != nil {
			return false, err
		}
		if len(deps) == 0 {
			mutedColor.Fprintln(s.out, "No dependents") //nolint:errcheck
		}
		for _, d := range deps {
			fmt.Fprintf(s.out, "%-20s %10s\n", d.Username, d.Balance) //nolint:errcheck
		}
	case "add-dependent":
		if len(rest) != 2 {
			return false, usageError("add-dependent <name> <password>")
		}
		d, err := s.app.DirectoryService.CreateDependent(ctx, commands.CreateDependent{
			ActorID:  id,
			Username: rest[0],
			Password: rest[1],
		})
		if err != nil {
			return false, err
		}
		successColor.Fprintf(s.out, "Added dependent %s\n", d.Username) //nolint:errcheck
	default:
		return false, domain.Errorf(domain.ErrInvalidInput, "unknown command %q, try help", cmd)
	}
	return false, nil
}

func (s *session) history(ctx context.Context, args []string) error {
	var raw string
	if len(args) > 0 {
		raw = args[0]
	}
	filter, err := ledger.ParseFilter(raw)
	if err != nil {
		return err
	}
	items, err := s.app.LedgerService.History(ctx, s.actor.ID, filter)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		mutedColor.Fprintln(s.out, "No transactions") //nolint:errcheck
		return nil
	}
	for _, it := range items {
		c := successColor
		sign := "+"
		if it.Direction == ledger.DirectionOutgoing {
			c, sign = errorColor, "-"
		}
		fmt.Fprintf(s.out, "%s  %-8s ", it.CreatedAt.Format("2006-01-02 15:04"), it.Kind) //nolint:errcheck
		c.Fprintf(s.out, "%s%-10s", sign, it.Amount)                                    //nolint:errcheck
		fmt.Fprintf(s.out, " %s  %s\n", it.Counterpart, it.Description)                  //nolint:errcheck
	}
	return nil
}

func statusColor(status string) *color.Color {
	switch status {
	case dto.BudgetRed:
		return errorColor
	case dto.BudgetOrange:
		return color.New(color.FgYellow)
	default:
		return successColor
	}
}

func usageError(u string) error {
	return domain.Errorf(domain.ErrInvalidInput, "usage: %s", u)
}
