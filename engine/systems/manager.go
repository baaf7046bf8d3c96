package systems

type SystemManager struct {
	TextureSystem *TextureSystem
	FontSystem    *FontSystem
}

func NewSystemManager(am AssetLoader, device TextureCreator) (*SystemManager, error) {
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: 1000,
	}, am, device)
	if err != nil {
		return nil, err
	}
	fs, err := NewFontSystem(&FontSystemConfig{
		MaxBitmapFontCount: 16,
	}, ts, am)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		TextureSystem: ts,
		FontSystem:    fs,
	}, nil
}

func (sm *SystemManager) Initialize() error {
	return sm.TextureSystem.Initialize()
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.FontSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
