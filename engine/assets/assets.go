package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/resources"
)

// Changes that are not consumed in time are dropped.
const changeBufferSize = 64

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrManagerShutdown = errors.New("asset manager already shut down")
)

type AssetInfo struct {
	// Path relative to the assets directory, with forward slashes.
	Name       string
	Path       string
	Type       resources.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes every loadable file under the assets directory and,
// when watching, keeps the index current and reports modified assets.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	watching bool
	isClosed bool
	changes  chan string
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[resources.ResourceType]Loader),
		fsnotify: fsWatch,
		changes:  make(chan string, changeBufferSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	am.registerLoader(resources.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(resources.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(resources.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})

	return am, nil
}

// Initialize indexes assetsDir. With watch set, changes below it are
// tracked until Shutdown.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if am.isClosed {
		return ErrManagerShutdown
	}
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	if err := am.watchRecursive(root, watch); err != nil {
		return err
	}
	if watch {
		am.watching = true
		go am.start()
	}
	core.LogInfo("indexed %d assets under %s", am.Count(), root)
	return nil
}

// Root is the absolute assets directory.
func (am *AssetManager) Root() string {
	return am.root
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Changes delivers the name of every indexed asset created or written
// while watching. It is closed by Shutdown.
func (am *AssetManager) Changes() <-chan string {
	return am.changes
}

// Lookup returns the index entry of an asset.
func (am *AssetManager) Lookup(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	asset, exists := am.assets[filepath.ToSlash(name)]
	return asset, exists
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// LoadAsset loads an asset by its name relative to the assets directory.
func (am *AssetManager) LoadAsset(name string, resourceType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	name = filepath.ToSlash(name)

	am.mutex.Lock()
	asset, exists := am.assets[name]
	if exists {
		// Update the loaded time
		asset.LastLoaded = time.Now()
		am.assets[name] = asset
	}
	am.mutex.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	if asset.Type != resourceType {
		return nil, fmt.Errorf("asset %s is a %s, not a %s", name, asset.Type, resourceType)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}

	res, err := loader.Load(asset.Path, resourceType, params)
	if err != nil {
		return nil, err
	}
	res.Name = name
	return res, nil
}

// LoadText loads a shader source.
func (am *AssetManager) LoadText(name string) (string, error) {
	res, err := am.LoadAsset(name, resources.ResourceTypeShader, nil)
	if err != nil {
		return "", err
	}
	return res.Data.(string), nil
}

func (am *AssetManager) UnloadAsset(asset *resources.Resource) error {
	loader, exists := am.loaders[asset.Type]
	if !exists {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return ErrManagerShutdown
	}
	am.isClosed = true
	if am.watching {
		close(am.done)
		<-am.stopped
		return nil
	}
	close(am.changes)
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleWatchEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			close(am.changes)
			return
		}
	}
}

func (am *AssetManager) handleWatchEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s != nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name, true); err != nil {
				core.LogWarn("failed to watch %s: %s", e.Name, err)
			}
		}
		return
	}
	// Handle create or modify events
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if name, ok := am.handleFileEvent(e.Name); ok {
			select {
			case am.changes <- name:
			default:
				core.LogWarn("asset change for %s dropped", name)
			}
		}
	}
	// Can't stat a deleted path, so it is dropped from the index either way.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
	}
}

// watchRecursive indexes every file under path and, with watch set, adds
// every directory to the watch list.
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if watch {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (string, bool) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return "", false
	}
	name, ok := am.nameOf(path)
	if !ok {
		return "", false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[name] = AssetInfo{
		Name: name,
		Path: path,
		Type: assetType,
	}
	return name, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	name, ok := am.nameOf(path)
	if !ok {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, name)
}

func (am *AssetManager) nameOf(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func determineAssetType(path string) resources.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vert", ".frag", ".glsl":
		return resources.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".webp":
		return resources.ResourceTypeImage
	case ".fnt":
		return resources.ResourceTypeBitmapFont
	default:
		return resources.ResourceTypeNone
	}
}
