package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

var (
	errNoCropService     = errors.New("crop service not configured")
	errNoTransformEngine = errors.New("transform engine not configured")
)

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Manage banner crops",
	Long: `View and edit the committed crop of each banner slot.

A crop stores the image locator, the slot's aspect ratio and a
{scale, tx, ty} transform. Every renderer turns it into the same
translate-then-scale transform anchored at the viewport centre.

Roles fix the ratio and the fit used for new images:
  hero         1920x650  cover
  hero-mobile  4:5       cover
  category     16:9      contain
  offer        1:1       contain`,
}

var (
	fitRole   string
	fitWidth  int
	fitHeight int
)

var cropFitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Compute the initial fit of an image for a role",
	Args:  cobra.NoArgs,
	RunE:  runCropFit,
}

var cropListJSON bool

var cropListCmd = &cobra.Command{
	Use:   "list",
	Short: "List slots with a committed crop",
	Args:  cobra.NoArgs,
	RunE:  runCropList,
}

var cropShowJSON bool

var cropShowCmd = &cobra.Command{
	Use:   "show [slot]",
	Short: "Show the committed crop of a slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runCropShow,
}

var (
	renderJSON  bool
	renderWidth float64
)

var cropRenderCmd = &cobra.Command{
	Use:   "render [slot]",
	Short: "Show how a slot is rendered",
	Long: `Resolves the committed crop of a slot into the render transform used by
every renderer, and checks that the image still loads. A missing image is
reported as a placeholder; the committed crop is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runCropRender,
}

// imageFlags select the image a session is opened on.
type imageFlags struct {
	src    string
	role   string
	width  int
	height int
}

func (f *imageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.src, "src", "", "image locator (default: the committed image)")
	cmd.Flags().StringVar(&f.role, "role", "", "banner role (default: inferred from the committed ratio)")
	cmd.Flags().IntVar(&f.width, "image-width", 0, "natural image width (default: probed)")
	cmd.Flags().IntVar(&f.height, "image-height", 0, "natural image height (default: probed)")
}

var (
	setImage   imageFlags
	setReset   bool
	setDrag    string
	setZoomIn  int
	setZoomOut int
)

var cropSetCmd = &cobra.Command{
	Use:   "set [slot]",
	Short: "Adjust and save the crop of a slot",
	Long: `Opens an edit session on a slot, applies the requested adjustments and
saves the result.

A slot keeps its committed transform while the image stays the same. A new
--src is fitted with the role's policy first.

Adjustments are applied in order: reset, drag, zoom.

Examples:
  gangboyz crop set hero-main --src https://cdn.example/hero.jpg --role hero
  gangboyz crop set hero-main --drag 96,0 --zoom-in 2`,
	Args: cobra.ExactArgs(1),
	RunE: runCropSet,
}

var cropDeleteCmd = &cobra.Command{
	Use:   "delete [slot]",
	Short: "Delete the committed crop of a slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runCropDelete,
}

var editImage imageFlags

var cropEditCmd = &cobra.Command{
	Use:   "edit [slot]",
	Short: "Edit a crop interactively",
	Long: `Opens the crop editor for one slot in the terminal.

Controls:
  ←/→/↑/↓ - Pan
  +/-     - Zoom in/out
  u/r     - Undo/redo
  0       - Reset to fit
  s       - Save
  Esc     - Cancel`,
	Args: cobra.ExactArgs(1),
	RunE: runCropEdit,
}

func init() {
	cropFitCmd.Flags().StringVar(&fitRole, "role", "", "banner role")
	cropFitCmd.Flags().IntVar(&fitWidth, "width", 0, "natural image width")
	cropFitCmd.Flags().IntVar(&fitHeight, "height", 0, "natural image height")

	cropListCmd.Flags().BoolVar(&cropListJSON, "json", false, "output as JSON")
	cropShowCmd.Flags().BoolVar(&cropShowJSON, "json", false, "output as JSON")

	cropRenderCmd.Flags().BoolVar(&renderJSON, "json", false, "output as JSON")
	cropRenderCmd.Flags().Float64Var(&renderWidth, "viewport-width", 0, "viewport width for the pixel matrix (default: reference width)")

	setImage.register(cropSetCmd)
	cropSetCmd.Flags().BoolVar(&setReset, "reset", false, "re-fit the image first")
	cropSetCmd.Flags().StringVar(&setDrag, "drag", "", "drag by dx,dy viewport pixels")
	cropSetCmd.Flags().IntVar(&setZoomIn, "zoom-in", 0, "zoom in by this many steps")
	cropSetCmd.Flags().IntVar(&setZoomOut, "zoom-out", 0, "zoom out by this many steps")

	editImage.register(cropEditCmd)

	cropCmd.AddCommand(cropFitCmd)
	cropCmd.AddCommand(cropListCmd)
	cropCmd.AddCommand(cropShowCmd)
	cropCmd.AddCommand(cropRenderCmd)
	cropCmd.AddCommand(cropSetCmd)
	cropCmd.AddCommand(cropDeleteCmd)
	cropCmd.AddCommand(cropEditCmd)
	rootCmd.AddCommand(cropCmd)
}

func parseRole(s string) (domain.BannerRole, error) {
	role := domain.BannerRole(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownRole, s)
	}
	return role, nil
}

func runCropFit(cmd *cobra.Command, _ []string) error {
	if transformEngine == nil {
		return errNoTransformEngine
	}

	role, err := parseRole(fitRole)
	if err != nil {
		return err
	}

	viewport, err := transformEngine.ReferenceViewport(role.Ratio())
	if err != nil {
		return err
	}

	image := domain.Size{Width: float64(fitWidth), Height: float64(fitHeight)}
	t, err := transformEngine.InitializeFit(image, viewport, role.Policy())
	if err != nil {
		return err
	}

	render := transformEngine.ComputeRenderTransform(domain.CropMetadata{Ratio: role.Ratio()}.WithTransform(t))
	cmd.Printf("%s fit of %dx%d into %s (%.0fx%.0f)\n", role.Policy(), fitWidth, fitHeight, role.Ratio(), viewport.Width, viewport.Height)
	cmd.Printf("Scale: %.4f\n", t.Scale)
	cmd.Printf("CSS:   %s\n", render.CSS())
	return nil
}

func runCropList(cmd *cobra.Command, _ []string) error {
	if cropService == nil {
		return errNoCropService
	}

	ctx := cmd.Context()
	slots, err := cropService.Slots(ctx)
	if err != nil {
		return err
	}

	type entry struct {
		Slot string               `json:"slot"`
		Crop *domain.CropMetadata `json:"crop,omitempty"`
		Err  string               `json:"error,omitempty"`
	}
	entries := make([]entry, 0, len(slots))
	for _, slot := range slots {
		e := entry{Slot: slot}
		meta, err := cropService.Committed(ctx, slot)
		if err != nil {
			e.Err = err.Error()
		} else {
			e.Crop = meta
		}
		entries = append(entries, e)
	}

	if cropListJSON {
		return outputJSON(cmd, entries)
	}

	if len(entries) == 0 {
		cmd.Println("No crops saved.")
		return nil
	}

	cmd.Println("Banner Crops")
	cmd.Println("============")
	for _, e := range entries {
		if e.Crop == nil {
			cmd.Printf("  %-24s (unreadable: %s)\n", e.Slot, e.Err)
			continue
		}
		cmd.Printf("  %-24s %-9s scale %.4f tx %+.4f ty %+.4f\n",
			e.Slot, e.Crop.Ratio, e.Crop.Scale, e.Crop.TX, e.Crop.TY)
	}
	return nil
}

func runCropShow(cmd *cobra.Command, args []string) error {
	if cropService == nil {
		return errNoCropService
	}

	meta, err := cropService.Committed(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if cropShowJSON {
		return outputJSON(cmd, meta)
	}
	printCrop(cmd, args[0], *meta)
	return nil
}

func printCrop(cmd *cobra.Command, slot string, meta domain.CropMetadata) {
	cmd.Printf("Slot:    %s\n", slot)
	cmd.Printf("Image:   %s\n", meta.Src)
	cmd.Printf("Ratio:   %s\n", meta.Ratio)
	cmd.Printf("Scale:   %.4f\n", meta.Scale)
	cmd.Printf("Offset:  tx %+.4f ty %+.4f\n", meta.TX, meta.TY)
	if !meta.UpdatedAt.IsZero() {
		cmd.Printf("Updated: %s\n", meta.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func runCropRender(cmd *cobra.Command, args []string) error {
	if cropService == nil {
		return errNoCropService
	}

	render, err := cropService.Render(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if renderJSON {
		return outputJSON(cmd, render)
	}

	printCrop(cmd, render.Slot, render.Metadata)
	cmd.Printf("CSS:     %s\n", render.Render.CSS())

	var viewport domain.Size
	if renderWidth > 0 {
		viewport, err = domain.ViewportForRatio(render.Metadata.Ratio, renderWidth)
	} else if transformEngine != nil {
		viewport, err = transformEngine.ReferenceViewport(render.Metadata.Ratio)
	}
	if err == nil && viewport.Valid() {
		m := render.Render.Matrix(viewport)
		cmd.Printf("Matrix:  [%.4f %.4f %.4f %.4f %.2f %.2f] at %.0fx%.0f\n",
			m[0], m[1], m[2], m[3], m[4], m[5], viewport.Width, viewport.Height)
	}

	switch {
	case render.Placeholder:
		cmd.Printf("Status:  placeholder (%s)\n", render.LoadError)
	case render.Image != nil:
		cmd.Printf("Status:  loaded %dx%d %s\n", render.Image.Width, render.Image.Height, render.Image.MimeType)
	}
	return nil
}

func runCropSet(cmd *cobra.Command, args []string) error {
	if cropService == nil {
		return errNoCropService
	}

	dx, dy, err := parseDrag(setDrag)
	if err != nil {
		return err
	}
	if setZoomIn < 0 || setZoomOut < 0 {
		return fmt.Errorf("%w: zoom steps must not be negative", domain.ErrInvalidInput)
	}

	session, _, viewport, err := openSession(cmd, args[0], setImage)
	if err != nil {
		return err
	}
	defer func() {
		if !session.Closed() {
			session.Cancel()
		}
	}()

	if setReset {
		if _, err := session.Reset(); err != nil {
			return err
		}
	}
	if dx != 0 || dy != 0 {
		if _, err := session.Drag(dx, dy, viewport.Width, viewport.Height); err != nil {
			return err
		}
		if err := session.EndDrag(); err != nil {
			return err
		}
	}
	for i := 0; i < setZoomIn; i++ {
		if _, err := session.Zoom(-1); err != nil {
			return err
		}
	}
	for i := 0; i < setZoomOut; i++ {
		if _, err := session.Zoom(1); err != nil {
			return err
		}
	}

	meta, err := session.Save(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Println("Crop saved.")
	printCrop(cmd, args[0], meta)
	return nil
}

func runCropDelete(cmd *cobra.Command, args []string) error {
	if cropService == nil {
		return errNoCropService
	}

	if err := cropService.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}

	cmd.Printf("Crop %s deleted.\n", args[0])
	return nil
}

func runCropEdit(cmd *cobra.Command, args []string) error {
	if cropService == nil {
		return errNoCropService
	}
	if err := requireTerminal(); err != nil {
		return err
	}

	session, image, _, err := openSession(cmd, args[0], editImage)
	if err != nil {
		return err
	}

	return runEditor(cmd, session, image)
}

// openSession opens an edit session on slot. Missing image details are
// taken from the committed crop and the image prober.
func openSession(cmd *cobra.Command, slot string, f imageFlags) (driving.EditSession, domain.ImageInfo, domain.Size, error) {
	ctx := cmd.Context()

	committed, err := cropService.Committed(ctx, slot)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ImageInfo{}, domain.Size{}, err
	}

	src := f.src
	if src == "" && committed != nil {
		src = committed.Src
	}
	if src == "" {
		return nil, domain.ImageInfo{}, domain.Size{}, fmt.Errorf("%w: slot %s has no crop, pass --src", domain.ErrInvalidInput, slot)
	}

	var role domain.BannerRole
	switch {
	case f.role != "":
		if role, err = parseRole(f.role); err != nil {
			return nil, domain.ImageInfo{}, domain.Size{}, err
		}
	case committed != nil:
		r, ok := domain.RoleForRatio(committed.Ratio)
		if !ok {
			return nil, domain.ImageInfo{}, domain.Size{}, fmt.Errorf("%w: no role has ratio %s, pass --role", domain.ErrUnknownRole, committed.Ratio)
		}
		role = r
	default:
		return nil, domain.ImageInfo{}, domain.Size{}, fmt.Errorf("%w: pass --role", domain.ErrUnknownRole)
	}

	image, err := resolveImage(cmd, src, f.width, f.height)
	if err != nil {
		return nil, domain.ImageInfo{}, domain.Size{}, err
	}

	if transformEngine == nil {
		return nil, domain.ImageInfo{}, domain.Size{}, errNoTransformEngine
	}
	viewport, err := transformEngine.ReferenceViewport(role.Ratio())
	if err != nil {
		return nil, domain.ImageInfo{}, domain.Size{}, err
	}

	session, err := cropService.Open(ctx, slot, role, image, viewport)
	if err != nil {
		return nil, domain.ImageInfo{}, domain.Size{}, err
	}
	return session, image, viewport, nil
}

func resolveImage(cmd *cobra.Command, src string, width, height int) (domain.ImageInfo, error) {
	if width > 0 && height > 0 {
		return domain.ImageInfo{Src: src, Width: width, Height: height}, nil
	}
	if imageProber == nil {
		return domain.ImageInfo{}, fmt.Errorf("%w: image size unknown, pass --image-width and --image-height", domain.ErrInvalidInput)
	}
	info, err := imageProber.Probe(cmd.Context(), src)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("probe %s: %w", src, err)
	}
	return info, nil
}

// parseDrag reads "dx,dy". An empty value is no drag.
func parseDrag(s string) (float64, float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, 0, nil
	}
	xs, ys, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, fmt.Errorf("%w: drag must be dx,dy, got %q", domain.ErrInvalidInput, s)
	}
	dx, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: drag dx %q", domain.ErrInvalidInput, xs)
	}
	dy, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: drag dy %q", domain.ErrInvalidInput, ys)
	}
	return dx, dy, nil
}

// interactive reports whether stdin and stdout are a terminal.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func requireTerminal() error {
	if !interactive() {
		return errors.New("the crop editor needs an interactive terminal")
	}
	return nil
}

// runEditor runs the crop editor on an open session until it is saved or
// cancelled.
func runEditor(cmd *cobra.Command, session driving.EditSession, image domain.ImageInfo) error {
	defer func() {
		if !session.Closed() {
			session.Cancel()
		}
	}()

	ports := tui.NewPorts(searchService, cropService, transformEngine)
	app, err := tui.NewEditorApp(ports, session, image)
	if err != nil {
		return fmt.Errorf("failed to create editor: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if err := app.Err(); err != nil {
		return err
	}

	if saved := app.Saved(); saved != nil {
		cmd.Println("Crop saved.")
		printCrop(cmd, session.Slot(), *saved)
		return nil
	}
	cmd.Println("Edit cancelled.")
	return nil
}
